// Package loaderr defines the typed failures reported by the PMX and VMD
// loaders and by the model/motion builders.
package loaderr

import (
	"errors"
	"fmt"
)

// Kind classifies a load failure.
type Kind int

const (
	KindIO Kind = iota
	KindMalformed
	KindTruncated
	KindUnsupportedVersion
	KindInconsistent
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "read error"
	case KindMalformed:
		return "malformed data"
	case KindTruncated:
		return "truncated data"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindInconsistent:
		return "inconsistent data"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrIO                 = errors.New("read error")
	ErrMalformed          = errors.New("malformed data")
	ErrTruncated          = errors.New("truncated data")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrInconsistent       = errors.New("inconsistent data")
)

// Error is a load failure with a human-readable reason.
type Error struct {
	Format string // "pmx", "vmd", "model", "motion"
	Path   string // empty for in-memory data
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Format + ": " + e.Kind.String()
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrMalformed:
		return e.Kind == KindMalformed
	case ErrTruncated:
		return e.Kind == KindTruncated
	case ErrUnsupportedVersion:
		return e.Kind == KindUnsupportedVersion
	case ErrInconsistent:
		return e.Kind == KindInconsistent
	}
	return false
}

// New builds an *Error with a formatted reason.
func New(format string, kind Kind, reason string, args ...any) *Error {
	return &Error{Format: format, Kind: kind, Reason: fmt.Sprintf(reason, args...)}
}

// WithPath returns err with its Path set when err is an *Error.
func WithPath(err error, path string) error {
	var le *Error
	if errors.As(err, &le) && le.Path == "" {
		cp := *le
		cp.Path = path
		return &cp
	}
	return err
}
