// Package dumperr defines the error kinds a dump run can fail with.
// Every kind is fatal for the run; there is no retry anywhere.
package dumperr

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure.
type Kind string

const (
	// KindPath means an argument does not denote a readable, listable directory.
	KindPath Kind = "PATH"
	// KindNullInput means a required name or path argument is empty.
	KindNullInput Kind = "NULL_INPUT"
	// KindInternalConsistency means a name resolved as unique still collided
	// when the copy was performed.
	KindInternalConsistency Kind = "INTERNAL_CONSISTENCY"
	// KindIOFailure covers byte-copy and log-write failures, including a
	// target refused because it would land outside the destination.
	KindIOFailure Kind = "IO_FAILURE"
)

// Error is a classified failure. Errors compare equal under errors.Is when
// their kinds match, so the sentinels below work through %w chains.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrPath                = &Error{Kind: KindPath}
	ErrNullInput           = &Error{Kind: KindNullInput}
	ErrInternalConsistency = &Error{Kind: KindInternalConsistency}
	ErrIOFailure           = &Error{Kind: KindIOFailure}
)

func (e *Error) Error() string {
	msg := "[" + string(e.Kind) + "]"
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// errNotDirectory is the cause attached to path errors whose target exists
// but cannot be listed as a directory.
var errNotDirectory = errors.New("not a readable directory")

// Path reports that path is not a readable directory. cause may be nil.
func Path(op, path string, cause error) *Error {
	if cause == nil {
		cause = errNotDirectory
	} else {
		cause = fmt.Errorf("%w: %w", errNotDirectory, cause)
	}
	return &Error{Kind: KindPath, Op: op, Path: path, Err: cause}
}

// NullInput reports a missing required argument.
func NullInput(op, what string) *Error {
	return &Error{Kind: KindNullInput, Op: op, Err: fmt.Errorf("%s cannot be empty", what)}
}

// InternalConsistency reports that path already existed although it had been
// resolved as free.
func InternalConsistency(op, path string, cause error) *Error {
	return &Error{Kind: KindInternalConsistency, Op: op, Path: path, Err: cause}
}

// IOFailure wraps an I/O error not covered by the other kinds.
func IOFailure(op, path string, cause error) *Error {
	return &Error{Kind: KindIOFailure, Op: op, Path: path, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
