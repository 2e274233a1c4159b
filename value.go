package ref

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/riverford/durable-ref/backend"
	"github.com/riverford/durable-ref/codec"
	"github.com/riverford/durable-ref/intern"
	"github.com/riverford/durable-ref/uri"
)

// valuePool is the process-wide intern pool backing every Value
// reference, per §4.5.
var valuePool = intern.NewPool[Value]()

// Value is an immutable, content-addressed, cached, interned reference.
// All mutating operations fail with ErrReadOnly.
type Value struct {
	d uri.Descriptor

	mu       sync.Mutex
	cached   any
	hasCache bool

	// readGroup deduplicates concurrent cache-miss reads+decodes, keyed
	// on the reference's own URI, mirroring the teacher's Blob.readGroup.
	readGroup singleflight.Group

	settings settings
	logger   *slog.Logger
}

func (v *Value) log() *slog.Logger {
	if v.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return v.logger
}

// URI implements Reference.
func (v *Value) URI() uri.Descriptor { return v.d }

// IsReadOnly implements Reference; always true for Value.
func (v *Value) IsReadOnly() bool { return true }

// Evict clears the cache cell; the next Deref re-reads and re-verifies.
func (v *Value) Evict() {
	v.mu.Lock()
	v.cached, v.hasCache = nil, false
	v.mu.Unlock()
}

// Overwrite always fails: Value is read-only.
func (v *Value) Overwrite(context.Context, any, Options) error { return ErrReadOnly }

// Delete always fails: Value is read-only.
func (v *Value) Delete(context.Context, Options) error { return ErrReadOnly }

// AtomicSwap always fails: Value is read-only.
func (v *Value) AtomicSwap(context.Context, func(old any, ok bool) (any, error), Options) (any, error) {
	return nil, ErrReadOnly
}

// Deref implements Reference.
func (v *Value) Deref(ctx context.Context, opts Options) (any, error) {
	if val, ok := v.peekCache(); ok {
		return val, nil
	}

	result, err, _ := v.readGroup.Do(v.d.String(), func() (any, error) {
		if val, ok := v.peekCache(); ok {
			return val, nil
		}
		return v.readAndDecode(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (v *Value) peekCache() (any, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cached, v.hasCache
}

func (v *Value) readAndDecode(ctx context.Context, opts Options) (any, error) {
	data, ok, err := backend.Default.Read(ctx, v.d.Scheme(), v.d.Inner(), toBackendOpts(opts))
	if err != nil {
		return nil, &BackendError{Scheme: v.d.Scheme(), Inner: v.d.Inner(), Op: "read", Cause: err}
	}
	if !ok {
		return nil, ErrMissingValue
	}

	if v.settings.verifyEnabled() {
		if !strings.Contains(strings.ToLower(v.d.Inner()), sha1Hex(data)) {
			return nil, ErrChecksumMismatch
		}
	}

	decoded, err := codec.Default.Decode(v.d.Inner(), data, opts.ReadOpts)
	if err != nil {
		return nil, &CodecError{Format: v.d.LastSegment(), Op: "decode", Cause: err}
	}

	if origin, ok := asOriginator(decoded); ok {
		origin.SetOrigin(v)
	}

	v.mu.Lock()
	v.cached, v.hasCache = decoded, true
	v.mu.Unlock()

	v.log().Debug("value decoded", "uri", v.d.String())
	return decoded, nil
}

// Persist encodes value with format, computes its content hash, derives
// the child URI base/<hex>.<format>, interns it, and writes the encoded
// bytes unless an equal-URI canonical reference is already interned (in
// which case the blob is, by construction, already present or already
// being written by the live holder).
//
// The returned Value's cache cell is pre-populated with value itself,
// avoiding a decode round-trip.
func Persist(ctx context.Context, base, format string, value any, opts Options, constructOpts ...Option) (*Value, error) {
	s, err := applyOptions(constructOpts)
	if err != nil {
		return nil, err
	}

	encoded, err := codec.Default.EncodeFormat(format, value, opts.WriteOpts)
	if err != nil {
		return nil, &CodecError{Format: format, Op: "encode", Cause: err}
	}

	inner := joinInner(base, sha1Hex(encoded), format)
	d, err := uri.Parse("value:" + inner)
	if err != nil {
		return nil, err
	}

	candidate := &Value{d: d, cached: value, hasCache: true, settings: s}
	canonical, wasCanonical := valuePool.Intern(d, candidate)
	if !wasCanonical {
		return canonical, nil
	}

	if err := backend.Default.Write(ctx, d.Scheme(), d.Inner(), encoded, toBackendOpts(opts)); err != nil {
		return nil, &BackendError{Scheme: d.Scheme(), Inner: d.Inner(), Op: "write", Cause: err}
	}

	if origin, ok := asOriginator(value); ok {
		origin.SetOrigin(canonical)
	}
	return canonical, nil
}

// valueFor resolves d (kind must be uri.Value) to its canonical Value
// reference, creating one with an empty cache if none is currently
// interned.
func valueFor(d uri.Descriptor) *Value {
	canonical, _ := valuePool.Intern(d, &Value{d: d})
	return canonical
}
