// Package cache provides content-addressed caching for resolution results
// and rendered artifacts, with file, Redis and no-op backends.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// DefaultTTL is the cache lifetime used when the configuration does not
// set one. Dependency data files change rarely, and a changed file rolls
// the keys anyway, so entries mostly expire unused.
const DefaultTTL = 24 * time.Hour

// ResolutionKeyOpts carries everything besides the database content that
// changes a resolution result.
type ResolutionKeyOpts struct {
	Components []string `json:"components"`
	Branch     string   `json:"branch"`
	Direct     bool     `json:"direct"`
	Waves      bool     `json:"waves"`
}

// ArtifactKeyOpts carries everything besides the database content that
// changes a rendered artifact.
type ArtifactKeyOpts struct {
	Components []string `json:"components"`
	Branch     string   `json:"branch"`
	Format     string   `json:"format"`
	Detailed   bool     `json:"detailed"`
}

// Keyer derives cache keys from the dependency data hash and the request
// parameters, so a changed data file can never serve stale results.
type Keyer interface {
	// ResolutionKey generates a key for resolution results.
	ResolutionKey(dataHash string, opts ResolutionKeyOpts) string

	// ArtifactKey generates a key for rendered artifacts.
	ArtifactKey(dataHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the data hash together with the request options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ResolutionKey generates a key for resolution results.
func (k *DefaultKeyer) ResolutionKey(dataHash string, opts ResolutionKeyOpts) string {
	return hashKey("resolution", dataHash, opts)
}

// ArtifactKey generates a key for rendered artifacts.
func (k *DefaultKeyer) ArtifactKey(dataHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", dataHash, opts)
}
