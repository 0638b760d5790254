// Package history records resolution runs for later inspection.
//
// The server writes one Entry per successful resolve request. Storage
// backends implement the Store interface:
//   - mongo: MongoDB-backed storage for deployments
//   - nop: discards everything, used when history is disabled
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry describes one resolution run.
type Entry struct {
	ID         string    `bson:"_id" json:"id"`
	Components []string  `bson:"components" json:"components"`
	Branch     string    `bson:"branch" json:"branch"`
	Direct     bool      `bson:"direct" json:"direct"`
	OrderSize  int       `bson:"order_size" json:"order_size"`
	TookMS     int64     `bson:"took_ms" json:"took_ms"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// NewEntry stamps a run with a fresh ID and timestamp.
func NewEntry(components []string, branch string, direct bool, orderSize int, took time.Duration) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Components: components,
		Branch:     branch,
		Direct:     direct,
		OrderSize:  orderSize,
		TookMS:     took.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
}

// Store is the interface for history storage backends.
type Store interface {
	// Record persists a resolution run.
	Record(ctx context.Context, entry Entry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NopStore discards all history. It backs deployments where history is
// disabled so callers never need a nil check.
type NopStore struct{}

// NewNopStore creates a store that records nothing.
func NewNopStore() *NopStore {
	return &NopStore{}
}

// Record discards the entry.
func (s *NopStore) Record(ctx context.Context, entry Entry) error {
	return nil
}

// Recent always returns an empty list.
func (s *NopStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return []Entry{}, nil
}

// Close is a no-op.
func (s *NopStore) Close(ctx context.Context) error {
	return nil
}

var _ Store = (*NopStore)(nil)
