package storage

import "github.com/valter-silva-au/taskpulse/pkg/models"

// Mergeable is satisfied by both task variants through the embedded Task.
type Mergeable interface {
	Base() models.Task
}

// MergeTasks combines two task collections keyed by ID. A task only in one
// side is kept; when both sides carry the same ID the version with the later
// UpdatedAt wins, and the existing version wins a tie.
//
// The result lists existing IDs in their original order followed by new
// incoming IDs in input order. Callers must not rely on this order.
func MergeTasks[T Mergeable](existing, incoming []T) []T {
	order := make([]string, 0, len(existing)+len(incoming))
	byID := make(map[string]T, len(existing)+len(incoming))

	for _, t := range existing {
		id := t.Base().ID
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = t
	}

	for _, t := range incoming {
		id := t.Base().ID
		cur, seen := byID[id]
		if !seen {
			order = append(order, id)
			byID[id] = t
			continue
		}
		if t.Base().UpdatedAt.After(cur.Base().UpdatedAt) {
			byID[id] = t
		}
	}

	merged := make([]T, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}
