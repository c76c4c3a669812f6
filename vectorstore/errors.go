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


package vectorstore

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrIndexDirRequired is returned when the index directory is empty.
	ErrIndexDirRequired = errors.New("index directory required")

	// ErrInvalidK is returned when a lookup asks for zero or fewer results.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidScoreThreshold is returned for thresholds outside [0, 1].
	ErrInvalidScoreThreshold = errors.New("score threshold must be between 0 and 1")

	// ErrFiltersUnsupported is returned when a search passes metadata filters.
	ErrFiltersUnsupported = errors.New("metadata filters are not supported")

	// ErrEmbeddingCountMismatch is returned when the embedder returns the wrong number of vectors.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrInvalidMaxAttempts is returned when maxAttempts is less than 1.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
