// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/storage"
)

// IndexRepository implements storage.IndexRepository on top of a Backend.
type IndexRepository struct {
	backend *Backend
	idSeq   *badger.Sequence // nil when the backend is read-only
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates an IndexRepository.
// On a read-only backend no sequence is leased and AddEntries fails with storage.ErrReadOnly.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	repo := &IndexRepository{backend: backend}
	if backend.ReadOnly() {
		return repo, nil
	}

	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}
	repo.idSeq = idSeq
	return repo, nil
}

// Close releases the ID sequence. The backend is closed by its owner.
func (r *IndexRepository) Close() error {
	if r.idSeq == nil {
		return nil
	}
	return r.idSeq.Release()
}

// FindNearest delegates to the backend.
func (r *IndexRepository) FindNearest(ctx context.Context, vector []float32, k int) ([]*core.SearchResult, error) {
	return r.backend.FindNearest(ctx, vector, k)
}

// AddEntries appends entries in order, splitting the write across
// transactions when it grows past Badger's transaction limit.
func (r *IndexRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	if r.idSeq == nil {
		return nil, storage.ErrReadOnly
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	for _, entry := range entries {
		if err := core.ValidateEntry(entry); err != nil {
			return nil, err
		}
	}

	tx := r.backend.db.NewTransaction(true)
	defer func() { tx.Discard() }()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return nil, err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return nil, err
			}
		}
		entry.Id = core.ID(nextID)
		entry.InsertedAt = time.Now().UTC()
		if entry.ContentHash == 0 {
			entry.ContentHash = core.IDFromContent(entry.Content)
		}

		key := makeEntryKey(entry.Id)
		value := storage.MarshalEntry(entry)
		err = tx.Set(key, value)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := tx.Commit(); err != nil {
				return nil, err
			}
			tx = r.backend.db.NewTransaction(true)
			err = tx.Set(key, value)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry retrieves a single entry by ID.
func (r *IndexRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = storage.UnmarshalEntry(val)
			return err
		})
	}, false)
	return result, err
}

// Count returns the number of stored entries without decoding them.
func (r *IndexRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// SaveManifest validates and stores the build manifest.
func (r *IndexRepository) SaveManifest(ctx context.Context, manifest *core.IndexManifest) error {
	if err := core.ValidateManifest(manifest); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(manifestKey), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadManifest returns the stored build manifest.
func (r *IndexRepository) LoadManifest(ctx context.Context) (*core.IndexManifest, error) {
	var manifest *core.IndexManifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(manifestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: manifest", storage.ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			manifest, err = storage.UnmarshalManifest(val)
			return err
		})
	}, false)
	return manifest, err
}
