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


package core

import (
	"fmt"
	"strings"
)

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Title must not be blank
//   - Content must not be blank
//
// Genres and Synopsis are informational and may be empty.
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyTitle)
	}

	if strings.TrimSpace(item.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyContent)
	}

	return nil
}

// ValidateEntry validates an Entry before it is written to the index.
//
// Validation rules:
//   - Content must not be blank
//   - Vector must not be empty
//
// NOT validated:
//   - ID (0 means "assign from sequence")
//   - InsertedAt (set by storage)
func ValidateEntry(entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Content) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyContent)
	}

	if len(entry.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyVector)
	}

	return nil
}

// ValidateManifest checks the manifest against the entries it describes.
func ValidateManifest(manifest *IndexManifest) error {
	if manifest == nil {
		return fmt.Errorf("%w: manifest is nil", ErrInvalidManifest)
	}
	if manifest.BuildId == "" {
		return fmt.Errorf("%w: build id is required", ErrInvalidManifest)
	}
	if manifest.Count < 0 || manifest.Dimension < 0 {
		return fmt.Errorf("%w: negative count or dimension", ErrInvalidManifest)
	}
	if manifest.Count > 0 && manifest.Dimension == 0 {
		return fmt.Errorf("%w: non-empty index without dimension", ErrInvalidManifest)
	}
	return nil
}
