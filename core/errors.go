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
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidEntry indicates an index Entry failed validation.
	ErrInvalidEntry = errors.New("invalid index entry")

	// ErrInvalidManifest indicates an IndexManifest failed validation.
	ErrInvalidManifest = errors.New("invalid index manifest")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyVector indicates an entry has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrDimensionMismatch indicates a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// ErrorKind classifies a failure by where it originated.
// An ErrorKind is itself an error so callers can write errors.Is(err, core.KindIO).
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindIO covers missing or unreadable files and failed writes.
	KindIO
	// KindData covers malformed input: bad CSV, missing columns, unbound placeholders.
	KindData
	// KindService covers embedding and completion service failures.
	KindService
	// KindIndex covers a missing, corrupt or unusable persisted index.
	KindIndex
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindData:
		return "data"
	case KindService:
		return "service"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

func (k ErrorKind) Error() string {
	return k.String() + " error"
}

// Error is the error type returned at operation boundaries.
type Error struct {
	Op   string    // operation that failed, e.g. "load and process"
	Kind ErrorKind // category of the failure
	Err  error     // underlying cause
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.String())
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.String(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same ErrorKind as e.
func (e *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// Wrap annotates err with an operation name and kind.
// A nil err yields nil. KindUnknown inherits the kind already carried by err.
func Wrap(op string, kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	if kind == KindUnknown {
		kind = KindOf(err)
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
