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


// Package vectorstore builds the persisted anime index and serves nearest-neighbour
// lookups over it.
//
// A Builder reads a processed CSV, splits each item into chunks, embeds the chunks
// and writes them to a badger index in a staging directory. Once the manifest is
// written the staging directory replaces the configured index directory, so a
// reader never sees a partially built index.
//
// Builder.Load opens the index read-only and returns a Store. Store implements
// langchaingo's vectorstores.VectorStore; ranking is by ascending cosine distance
// with ties resolved in insertion order.
//
// Basic usage:
//
//	builder, err := vectorstore.NewBuilder("index_db", provider.Embedder())
//	stats, err := builder.BuildAndSave(ctx, "data/anime_processed.csv")
//	store, err := builder.Load(ctx)
//	defer store.Close()
//	results, err := store.Retrieve(ctx, "space bounty hunters", 4)
package vectorstore
