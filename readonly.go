package ref

import (
	"context"

	"github.com/riverford/durable-ref/uri"
)

// ReadOnly is the degenerate kind for a bare inner URI with no kind
// prefix: reads behave like Volatile, every mutating operation fails
// ErrReadOnly.
type ReadOnly struct {
	d uri.Descriptor
}

// URI implements Reference.
func (r *ReadOnly) URI() uri.Descriptor { return r.d }

// IsReadOnly implements Reference; always true for ReadOnly.
func (r *ReadOnly) IsReadOnly() bool { return true }

// Deref implements Reference: a direct read and decode, no cache.
func (r *ReadOnly) Deref(ctx context.Context, opts Options) (any, error) {
	return derefPassthrough(ctx, r.d, opts)
}

// Overwrite always fails: ReadOnly is read-only.
func (r *ReadOnly) Overwrite(context.Context, any, Options) error { return ErrReadOnly }

// Delete always fails: ReadOnly is read-only.
func (r *ReadOnly) Delete(context.Context, Options) error { return ErrReadOnly }

// AtomicSwap always fails: ReadOnly is read-only.
func (r *ReadOnly) AtomicSwap(context.Context, func(old any, ok bool) (any, error), Options) (any, error) {
	return nil, ErrReadOnly
}

// Evict is a no-op: ReadOnly caches nothing.
func (r *ReadOnly) Evict() {}
