package ref

import (
	"errors"
	"fmt"

	"github.com/riverford/durable-ref/backend"
	"github.com/riverford/durable-ref/codec"
	"github.com/riverford/durable-ref/uri"
)

// Sentinel errors. Check with errors.Is; wrapping at each layer boundary
// preserves the original cause via %w.
var (
	// ErrInvalidURI is returned when a reference URI is malformed (empty,
	// or a kind prefix with an empty inner URI). A prefix that is not a
	// known kind is not rejected: it is read as the scheme of a bare,
	// read-only inner URI. It is uri.ErrInvalid under another name, so callers
	// of either this package or uri can check it with the same sentinel.
	ErrInvalidURI = uri.ErrInvalid

	// ErrUnknownScheme is returned when no backend is registered for an
	// inner URI's scheme. It is backend.ErrUnknownScheme under another
	// name.
	ErrUnknownScheme = backend.ErrUnknownScheme

	// ErrUnknownFormat is returned when no codec is registered for any
	// suffix of the path. It is codec.ErrUnknownFormat under another
	// name.
	ErrUnknownFormat = codec.ErrUnknownFormat

	// ErrMissingValue is returned when a Value reference's storage has no
	// bytes at its URI.
	ErrMissingValue = errors.New("ref: missing value")

	// ErrChecksumMismatch is returned when a Value reference's stored
	// bytes' SHA-1 does not appear in its URI.
	ErrChecksumMismatch = errors.New("ref: checksum mismatch")

	// ErrReadOnly is returned when a mutating operation is attempted on a
	// Value or ReadOnly reference.
	ErrReadOnly = errors.New("ref: read-only reference")

	// ErrUnsupportedOperation is returned for atomic_swap on a Volatile
	// reference (Value and ReadOnly return ErrReadOnly instead), or on a
	// backend lacking the capability.
	ErrUnsupportedOperation = errors.New("ref: unsupported operation")

	// ErrCasAborted is returned when the CAS back-off hook elects to stop
	// retrying. The hook returns no error of its own; the returned error
	// wraps both ErrCasAborted and atomic.ErrAborted.
	ErrCasAborted = errors.New("ref: cas aborted")
)

// BackendError wraps an adapter-level I/O failure, carrying the inner URI
// and scheme for diagnostics alongside the original cause.
type BackendError struct {
	Scheme, Inner string
	Op            string
	Cause         error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ref: backend %s %s %q: %v", e.Scheme, e.Op, e.Inner, e.Cause)
}

func (e *BackendError) Unwrap() error { return e.Cause }

// CodecError wraps an encode/decode failure, carrying the format
// string alongside the original cause.
type CodecError struct {
	Format string
	Op     string
	Cause  error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("ref: codec %s %q: %v", e.Op, e.Format, e.Cause)
}

func (e *CodecError) Unwrap() error { return e.Cause }
