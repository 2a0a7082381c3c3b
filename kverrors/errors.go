// Package kverrors defines the error taxonomy shared by every layer of
// corekv: the cache engine, the partitioned store, the store manager, the
// storage client, and the HTTP adapters that sit on top of them. Engine
// code returns these through ordinary error returns (never panics across a
// package boundary); the HTTP layer maps a Kind to a status code in one
// place instead of re-deriving it per handler.
package kverrors

import (
	"errors"
	"fmt"
)

// Kind categorizes an error by what went wrong, not where.
type Kind string

const (
	// ValidationFailure: key empty/too long, value too large, ttl negative.
	ValidationFailure Kind = "validation_failure"
	// NotFound: key absent (lazy-expiry counts as absent).
	NotFound Kind = "not_found"
	// IoFailure: file read/write errors other than ENOENT.
	IoFailure Kind = "io_failure"
	// CorruptEntry: JSON in a store file failed to parse.
	CorruptEntry Kind = "corrupt_entry"
	// Unavailable: storage client timeout or connection refused.
	Unavailable Kind = "unavailable"
	// RateLimited: boundary-only, too many requests.
	RateLimited Kind = "rate_limited"
)

// sentinel errors so callers can use errors.Is(err, kverrors.ErrNotFound)
// without unwrapping an *Error first.
var (
	ErrValidationFailure = errors.New("validation failure")
	ErrNotFound          = errors.New("not found")
	ErrIoFailure         = errors.New("io failure")
	ErrCorruptEntry      = errors.New("corrupt entry")
	ErrUnavailable       = errors.New("unavailable")
	ErrRateLimited       = errors.New("rate limited")
)

func sentinelFor(k Kind) error {
	switch k {
	case ValidationFailure:
		return ErrValidationFailure
	case NotFound:
		return ErrNotFound
	case IoFailure:
		return ErrIoFailure
	case CorruptEntry:
		return ErrCorruptEntry
	case Unavailable:
		return ErrUnavailable
	case RateLimited:
		return ErrRateLimited
	default:
		return errors.New(string(k))
	}
}

// Error is the concrete error type every package in corekv returns. It
// carries enough context (Kind, Op, Key) to log usefully without a stack
// trace, and matches the Kind's sentinel under errors.Is (see Is).
type Error struct {
	Kind Kind
	Op   string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s: key=%q: %v", e.Kind, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, kverrors.ErrNotFound) succeed for any *Error of
// that Kind, regardless of the wrapped detail message.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// New creates a Kind error with a plain message, no Op/Key context.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Newf is New with Printf-style formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Wrapf is Wrap with an added formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)}
}

// WithOp attaches an operation name and key to an error for logging.
func WithOp(err error, op, key string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Op: op, Key: key, Err: e.Err}
	}
	return &Error{Kind: IoFailure, Op: op, Key: key, Err: err}
}

// KindOf extracts the Kind from err, defaulting to IoFailure for errors
// that did not originate in this package (e.g. a bare os.PathError).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IoFailure
}
