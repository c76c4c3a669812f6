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


// Package storage provides the storage abstraction for the persisted vector index.
//
// The index is append-only during a build and read-only afterwards. A rebuild
// never edits an existing index; it writes a new one and swaps it in.
//
// # Constructor Return Type Pattern
//
// Public constructors return the IndexRepository interface so consumers do not
// couple to BadgerDB:
//
//	repo, err := badger.NewIndexRepository(backend)  // returns storage.IndexRepository
//
// # Usage
//
// Build time:
//
//	backend, err := badger.OpenBackend("/path/to/index", false)
//	repo, err := badger.NewIndexRepository(backend)
//	repo.AddEntries(ctx, entries...)
//	repo.SaveManifest(ctx, manifest)
//
// Serving time:
//
//	backend, err := badger.OpenReadOnlyBackend("/path/to/index")
//	repo, err := badger.NewIndexRepository(backend)
//	results, err := repo.FindNearest(ctx, queryVector, 4)
//
// Tests use in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Read-only repositories
// may be shared by any number of goroutines.
package storage
