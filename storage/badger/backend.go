package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/storage"
)

const (
	defaultSequenceBandwidth = 100

	// cancellation is checked once per this many scanned entries
	scanCheckInterval = 256
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db       *badger.DB
	readOnly bool
	logger   *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database for writing at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(filePath); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	return open(opts, false)
}

// OpenReadOnlyBackend opens an existing index without write access.
// Several processes may hold the same index open read-only.
// Returns storage.ErrIndexNotFound if filePath does not exist.
func OpenReadOnlyBackend(filePath string) (*Backend, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrIndexNotFound, filePath)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", storage.ErrIndexNotFound, filePath)
	}
	if contents, err := os.ReadDir(filePath); err == nil && len(contents) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", storage.ErrIndexNotFound, filePath)
	}

	return open(badger.DefaultOptions(filePath).WithReadOnly(true), true)
}

func ensureDir(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filePath, 0755); err != nil {
			return err
		}
		info, err = os.Stat(filePath)
		if err != nil {
			return err
		}
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

func open(opts badger.Options, readOnly bool) (*Backend, error) {
	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:       db,
		readOnly: readOnly,
		logger:   logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// ReadOnly reports whether the backend was opened without write access.
func (b *Backend) ReadOnly() bool {
	return b.readOnly
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	if isWrite && b.readOnly {
		return storage.ErrReadOnly
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	if b.readOnly {
		return nil, storage.ErrReadOnly
	}
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// FindNearest scans every entry and returns the k closest to vector.
// Implements the exact search behind storage.IndexRepository.
func (b *Backend) FindNearest(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	queryNorm := norm(vector)
	var results []*core.SearchResult

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		scanned := 0
		// Keys are big-endian sequence numbers, so this walks insertion order.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if scanned%scanCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			scanned++

			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}

			if len(entry.Vector) != len(vector) {
				return fmt.Errorf("%w: query has %d dimensions, entry %d has %d",
					core.ErrDimensionMismatch, len(vector), entry.Id, len(entry.Vector))
			}

			results = append(results, &core.SearchResult{
				Entry:    entry,
				Distance: cosineDistance(vector, queryNorm, entry.Vector),
			})
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Stable sort keeps insertion order among equal distances
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are maximally distant.
func cosineDistance(a []float32, aNorm float64, b []float32) float32 {
	bNorm := norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	similarity := dot / (aNorm * bNorm)
	// Clamp rounding error so identical vectors report exactly zero.
	similarity = math.Max(-1, math.Min(1, similarity))
	return float32(1 - similarity)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
