// Package ref implements durable references: typed, URI-addressed handles
// to values that live outside the process, in memory, on local disk, or in
// a remote store. It is the reference core — URI parsing, the pluggable
// codec and backend dispatch layer, the content-addressed Value cache with
// weak interning, and the atomic compare-and-swap loop — and depends only
// on the small primitive contracts its codec and backend adapters provide.
package ref

import (
	"context"
	"sync/atomic"

	"github.com/riverford/durable-ref/uri"
)

// Reference is the capability set every kind implements uniformly: a
// kind that doesn't support a mutating operation still exposes the
// method, returning ErrReadOnly (Value, ReadOnly) or
// ErrUnsupportedOperation (AtomicSwap on Volatile) rather than omitting
// it, so callers get a typed error instead of a type-assertion panic.
type Reference interface {
	// URI returns the reference's full, canonical URI.
	URI() uri.Descriptor
	// Deref returns the reference's current value.
	Deref(ctx context.Context, opts Options) (any, error)
	// IsReadOnly reports whether mutating operations on this reference
	// always fail.
	IsReadOnly() bool
	// Overwrite unconditionally replaces the reference's value.
	Overwrite(ctx context.Context, value any, opts Options) error
	// Delete removes the reference's value. Deleting an already-missing
	// value succeeds.
	Delete(ctx context.Context, opts Options) error
	// AtomicSwap applies fn to the current value and stores the result.
	AtomicSwap(ctx context.Context, fn func(old any, ok bool) (any, error), opts Options) (any, error)
	// Evict clears any cached decoded value, forcing the next Deref to
	// re-read from storage. A no-op for uncached kinds.
	Evict()
}

// verificationEnabled is the process-wide hash-verification toggle from
// §4.6, default on.
var verificationEnabled atomic.Bool

func init() {
	verificationEnabled.Store(true)
}

// VerificationEnabled reports the current process-wide hash-verification
// setting.
func VerificationEnabled() bool {
	return verificationEnabled.Load()
}

// SetVerification sets the process-wide hash-verification toggle. It is a
// deployment option for trusted storage; tests that want per-reference
// control should use WithVerification instead of flipping this global.
func SetVerification(enabled bool) {
	verificationEnabled.Store(enabled)
}

var (
	_ Reference = (*Value)(nil)
	_ Reference = (*Volatile)(nil)
	_ Reference = (*Atomic)(nil)
	_ Reference = (*ReadOnly)(nil)
)
