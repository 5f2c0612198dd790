// Package storage persists task snapshots, the activity log and analytics
// history into named slots of a key-value Store, and merges imported
// snapshots into the current one.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Store.Get when the key has never been set
	// or was deleted.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidSnapshot marks structurally invalid snapshot data on save or
	// import.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Store is a flat slot store: one opaque value per key. Implementations must
// return an error wrapping ErrNotFound from Get for missing keys, and treat
// Delete of a missing key as success.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// validateKey rejects keys that cannot be used as a single file name.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("storage key must not be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("storage key %q must not contain path separators", key)
	}
	return nil
}
