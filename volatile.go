package ref

import (
	"context"

	"github.com/riverford/durable-ref/backend"
	"github.com/riverford/durable-ref/codec"
	"github.com/riverford/durable-ref/uri"
)

// Volatile is a mutable reference with no concurrency coordination: reads
// and writes pass straight through to the backend, uncached, last writer
// wins.
type Volatile struct {
	d uri.Descriptor
}

// URI implements Reference.
func (vo *Volatile) URI() uri.Descriptor { return vo.d }

// IsReadOnly implements Reference; always false for Volatile.
func (vo *Volatile) IsReadOnly() bool { return false }

// Deref implements Reference: a direct read and decode, no cache, no hash
// check.
func (vo *Volatile) Deref(ctx context.Context, opts Options) (any, error) {
	return derefPassthrough(ctx, vo.d, opts)
}

// Overwrite implements Reference: encode and write, last writer wins.
func (vo *Volatile) Overwrite(ctx context.Context, value any, opts Options) error {
	return overwritePassthrough(ctx, vo.d, value, opts)
}

// Delete implements Reference.
func (vo *Volatile) Delete(ctx context.Context, opts Options) error {
	if err := backend.Default.Delete(ctx, vo.d.Scheme(), vo.d.Inner(), toBackendOpts(opts)); err != nil {
		return &BackendError{Scheme: vo.d.Scheme(), Inner: vo.d.Inner(), Op: "delete", Cause: err}
	}
	return nil
}

// AtomicSwap always fails: Volatile offers no concurrency coordination.
func (vo *Volatile) AtomicSwap(context.Context, func(old any, ok bool) (any, error), Options) (any, error) {
	return nil, ErrUnsupportedOperation
}

// Evict is a no-op: Volatile caches nothing.
func (vo *Volatile) Evict() {}

func derefPassthrough(ctx context.Context, d uri.Descriptor, opts Options) (any, error) {
	data, ok, err := backend.Default.Read(ctx, d.Scheme(), d.Inner(), toBackendOpts(opts))
	if err != nil {
		return nil, &BackendError{Scheme: d.Scheme(), Inner: d.Inner(), Op: "read", Cause: err}
	}
	if !ok {
		return nil, ErrMissingValue
	}
	decoded, err := codec.Default.Decode(d.Inner(), data, opts.ReadOpts)
	if err != nil {
		return nil, &CodecError{Format: d.LastSegment(), Op: "decode", Cause: err}
	}
	return decoded, nil
}

func overwritePassthrough(ctx context.Context, d uri.Descriptor, value any, opts Options) error {
	encoded, err := codec.Default.Encode(d.Inner(), value, opts.WriteOpts)
	if err != nil {
		return &CodecError{Format: d.LastSegment(), Op: "encode", Cause: err}
	}
	if err := backend.Default.Write(ctx, d.Scheme(), d.Inner(), encoded, toBackendOpts(opts)); err != nil {
		return &BackendError{Scheme: d.Scheme(), Inner: d.Inner(), Op: "write", Cause: err}
	}
	return nil
}
