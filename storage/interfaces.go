package storage

import (
	"context"

	"github.com/poiesic/animerec/core"
)

// IndexRepository stores embedded chunks and answers nearest-neighbour queries.
// Implementations must be thread-safe and support concurrent readers.
type IndexRepository interface {
	// AddEntries appends entries in the given order.
	// Every entry gets a fresh ID from the sequence and an InsertedAt timestamp.
	// Returns the entries with IDs populated.
	// Returns ErrReadOnly if the index was opened read-only.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.Entry, error)

	// FindNearest returns up to k entries closest to vector by cosine distance.
	// Results are ordered by ascending distance; ties keep insertion order.
	// Returns ErrInvalidQuery if k <= 0 or vector is empty.
	FindNearest(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// SaveManifest records that a build finished.
	SaveManifest(ctx context.Context, manifest *core.IndexManifest) error

	// LoadManifest returns the manifest of the completed build.
	// Returns ErrNotFound if no build has completed.
	LoadManifest(ctx context.Context) (*core.IndexManifest, error)

	// Close releases resources held by the repository.
	Close() error
}
