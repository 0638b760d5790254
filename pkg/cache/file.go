package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileCache stores entries as JSON files under a base directory, sharded
// into subdirectories by key hash. It is the default backend for CLI use:
// resolution results and rendered graphs survive between invocations
// without any running service.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk envelope around cached bytes.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value. Unreadable or expired entries count as misses
// and are removed.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return entry.Data, true, nil
}

// Set stores a value. A ttl of zero means the entry never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Data: data}
	if ttl != 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file backend.
func (c *FileCache) Close() error { return nil }

// path maps a key to its shard file. The first two hash characters pick
// the subdirectory, keeping any single directory from growing huge.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
