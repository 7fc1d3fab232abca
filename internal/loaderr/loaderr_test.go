package loaderr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestErrorMatchesKindSentinel(t *testing.T) {
	err := New("pmx", KindTruncated, "reading vertex %d", 12)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("errors.Is(ErrTruncated) = false for %v", err)
	}
	if errors.Is(err, ErrMalformed) {
		t.Fatalf("truncated error matched ErrMalformed")
	}
	if got, want := err.Error(), "pmx: truncated data: reading vertex 12"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWithPathKeepsKindAndWraps(t *testing.T) {
	base := &Error{Format: "vmd", Kind: KindIO, Err: fs.ErrNotExist}
	err := fmt.Errorf("session: %w", WithPath(base, "dance.vmd"))

	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("errors.As failed for %v", err)
	}
	if le.Path != "dance.vmd" {
		t.Fatalf("Path = %q", le.Path)
	}
	if !errors.Is(err, fs.ErrNotExist) || !errors.Is(err, ErrIO) {
		t.Fatalf("wrapped error lost its chain: %v", err)
	}
	if base.Path != "" {
		t.Fatalf("WithPath mutated the original error")
	}
}
