package ref

import (
	"context"
	"errors"
	"fmt"

	casloop "github.com/riverford/durable-ref/atomic"
	"github.com/riverford/durable-ref/backend"
	"github.com/riverford/durable-ref/codec"
	"github.com/riverford/durable-ref/uri"
)

// Atomic is a mutable reference supporting compare-and-swap. Like
// Volatile for Deref/Overwrite/Delete; AtomicSwap delegates to the
// backend's native support if present, otherwise falls back to the
// generic optimistic CAS loop in package atomic.
type Atomic struct {
	d uri.Descriptor
}

// URI implements Reference.
func (a *Atomic) URI() uri.Descriptor { return a.d }

// IsReadOnly implements Reference; always false for Atomic.
func (a *Atomic) IsReadOnly() bool { return false }

// Deref implements Reference.
func (a *Atomic) Deref(ctx context.Context, opts Options) (any, error) {
	return derefPassthrough(ctx, a.d, opts)
}

// Overwrite implements Reference: encode and write, last writer wins.
func (a *Atomic) Overwrite(ctx context.Context, value any, opts Options) error {
	return overwritePassthrough(ctx, a.d, value, opts)
}

// Delete implements Reference.
func (a *Atomic) Delete(ctx context.Context, opts Options) error {
	if err := backend.Default.Delete(ctx, a.d.Scheme(), a.d.Inner(), toBackendOpts(opts)); err != nil {
		return &BackendError{Scheme: a.d.Scheme(), Inner: a.d.Inner(), Op: "delete", Cause: err}
	}
	return nil
}

// Evict is a no-op: Atomic caches nothing.
func (a *Atomic) Evict() {}

// Reset unconditionally overwrites the reference with value and returns
// it.
func (a *Atomic) Reset(ctx context.Context, value any, opts Options) (any, error) {
	if err := overwritePassthrough(ctx, a.d, value, opts); err != nil {
		return nil, err
	}
	return value, nil
}

// AtomicSwap implements Reference.
//
// If the backend registered for this reference's scheme implements
// backend.AtomicSwapper, the swap is delegated to it. Otherwise this
// reference requires the backend to implement backend.ConditionalWriter,
// and runs the generic CAS loop (package atomic) on top of it.
func (a *Atomic) AtomicSwap(ctx context.Context, fn func(old any, ok bool) (any, error), opts Options) (any, error) {
	scheme, inner := a.d.Scheme(), a.d.Inner()

	swapBytes := func(oldBytes []byte, ok bool) ([]byte, error) {
		var oldVal any
		if ok {
			v, err := codec.Default.Decode(inner, oldBytes, opts.ReadOpts)
			if err != nil {
				return nil, &CodecError{Format: a.d.LastSegment(), Op: "decode", Cause: err}
			}
			oldVal = v
		}
		newVal, err := fn(oldVal, ok)
		if err != nil {
			return nil, err
		}
		newBytes, err := codec.Default.Encode(inner, newVal, opts.WriteOpts)
		if err != nil {
			return nil, &CodecError{Format: a.d.LastSegment(), Op: "encode", Cause: err}
		}
		return newBytes, nil
	}

	nativeSwapper, isNative, err := backend.NativeAtomicSwapper(scheme)
	if err != nil {
		return nil, err
	}

	var resultBytes []byte
	if isNative {
		resultBytes, err = nativeSwapper.AtomicSwap(ctx, inner, swapBytes, toBackendOpts(opts))
		if err != nil {
			return nil, &BackendError{Scheme: scheme, Inner: inner, Op: "atomic_swap", Cause: err}
		}
	} else {
		resultBytes, err = a.genericSwap(ctx, scheme, inner, swapBytes, opts)
		if err != nil {
			return nil, err
		}
	}

	decoded, err := codec.Default.Decode(inner, resultBytes, opts.ReadOpts)
	if err != nil {
		return nil, &CodecError{Format: a.d.LastSegment(), Op: "decode", Cause: err}
	}
	return decoded, nil
}

func (a *Atomic) genericSwap(ctx context.Context, scheme, inner string, apply func([]byte, bool) ([]byte, error), opts Options) ([]byte, error) {
	cw, ok, err := backendConditionalWriter(scheme)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q supports neither native atomic_swap nor a conditional write primitive", ErrUnsupportedOperation, scheme)
	}

	backendOpts := toBackendOpts(opts)
	read := func(ctx context.Context) ([]byte, uint64, bool, error) {
		return cw.ReadVersion(ctx, inner, backendOpts)
	}
	write := func(ctx context.Context, data []byte, expectVersion uint64) (uint64, bool, error) {
		v, err := cw.WriteIfVersion(ctx, inner, data, expectVersion, backendOpts)
		if errors.Is(err, backend.ErrVersionConflict) {
			return v, true, nil
		}
		if err != nil {
			return 0, false, err
		}
		return v, false, nil
	}

	result, err := casloop.Run(ctx, read, write, apply, opts.CASBackoff)
	if err != nil {
		if errors.Is(err, casloop.ErrAborted) {
			return nil, fmt.Errorf("%w: %w", ErrCasAborted, err)
		}
		return nil, err
	}
	return result, nil
}
