package core

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		if err := Wrap("op", KindIO, nil); err != nil {
			t.Errorf("Wrap(nil) = %v, want nil", err)
		}
	})

	t.Run("kind is matchable with errors.Is", func(t *testing.T) {
		err := Wrap("load and process", KindIO, fs.ErrNotExist)
		if !errors.Is(err, KindIO) {
			t.Errorf("errors.Is(err, KindIO) = false")
		}
		if errors.Is(err, KindService) {
			t.Errorf("errors.Is(err, KindService) = true")
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("cause lost in chain")
		}
	})

	t.Run("unknown kind inherits inner kind", func(t *testing.T) {
		inner := Wrap("embed", KindService, errors.New("connection refused"))
		outer := Wrap("build pipeline", KindUnknown, inner)
		if KindOf(outer) != KindService {
			t.Errorf("KindOf() = %v, want service", KindOf(outer))
		}
	})

	t.Run("kind survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", Wrap("open index", KindIndex, errors.New("no manifest")))
		if KindOf(err) != KindIndex {
			t.Errorf("KindOf() = %v, want index", KindOf(err))
		}
	})

	t.Run("message includes op and kind", func(t *testing.T) {
		err := Wrap("recommend", KindData, errors.New("empty query"))
		want := "recommend: data: empty query"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf() = %v, want unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want unknown", got)
	}
}

func TestErrorKind_String(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindIO:          "io",
		KindData:        "data",
		KindService:     "service",
		KindIndex:       "index",
		KindUnknown:     "unknown",
		ErrorKind(1000): "unknown",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
