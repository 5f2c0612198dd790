package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Seed supplies the read-only dataset used when no snapshot has been saved.
type Seed interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSeed reads the seed from a local file.
type FileSeed struct {
	Path string
}

// Fetch reads the whole file.
func (s FileSeed) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return data, nil
}

// maxSeedBytes bounds how much of a remote seed is read.
const maxSeedBytes = 16 << 20

// HTTPSeed fetches the seed from a URL.
type HTTPSeed struct {
	URL    string
	Client *http.Client
}

// NewHTTPSeed creates an HTTPSeed with a bounded client timeout.
func NewHTTPSeed(url string) HTTPSeed {
	return HTTPSeed{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// Fetch GETs the seed URL and returns the body.
func (s HTTPSeed) Fetch(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building seed request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching seed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetching seed: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading seed body: %w", err)
	}
	return data, nil
}
