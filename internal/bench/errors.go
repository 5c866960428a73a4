// Package bench classifies the handful of error kinds the benchmarker
// surfaces to its caller, matching the taxonomy this repository was built
// against: malformed template, entity, or GCS-path input is InputMalformed,
// blob, warehouse, and RPC transport failures are ExternalUnavailable, a
// sample pool that didn't drain in time is ExecutionTimeout, and anything
// else that should never happen is Internal.
package bench

import (
	"errors"
	"fmt"
)

// Kind is one of the four error classes the benchmarker distinguishes.
type Kind int

const (
	// Internal marks an invariant violation that indicates a bug.
	Internal Kind = iota
	// InputMalformed marks a malformed template, entity listing, or GCS path.
	InputMalformed
	// ExternalUnavailable marks a blob, warehouse, or RPC transport failure.
	ExternalUnavailable
	// ExecutionTimeout marks a sample pool that exceeded its drain budget.
	ExecutionTimeout
)

func (k Kind) String() string {
	switch k {
	case InputMalformed:
		return "input malformed"
	case ExternalUnavailable:
		return "external unavailable"
	case ExecutionTimeout:
		return "execution timeout"
	default:
		return "internal"
	}
}

// Error wraps an underlying cause with a Kind so callers can classify
// failures with errors.As without string matching.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// New returns a Kind-tagged error with a static message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

// Newf returns a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a Kind, preserving it for errors.Unwrap.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, msg: msg, err: err}
}

// Is reports whether the first *Error found in err's chain carries the
// given Kind.
func Is(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
