package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnsupported is returned when an operation is attempted against a
// backend that does not implement the required capability interface.
var ErrUnsupported = errors.New("backend: operation not supported")

// ErrUnknownScheme is returned when no backend is registered under the
// requested scheme.
var ErrUnknownScheme = errors.New("backend: unknown scheme")

// ErrNotFound is not itself returned to callers; it exists only so
// backend adapters in this module share one sentinel for "absent", in
// case they want to wrap it. Reader.Read instead signals absence via its
// bool return, matching the contract in §6.2: Absent is distinct from an
// error.
var ErrNotFound = errors.New("backend: not found")

// Opts is the per-call configuration threaded transparently from the
// reference kinds down to backend adapters. It is a typed struct rather
// than an open map (see SPEC_FULL.md §6.2); adapter-specific extension
// points are the two "any" fields, type-asserted by adapters that know
// what they expect there.
type Opts struct {
	// ReadOpts, WriteOpts, DeleteOpts are adapter-defined, consulted only
	// by the matching operation.
	ReadOpts, WriteOpts, DeleteOpts any
	// SharedOpts is consulted by every operation an adapter implements.
	SharedOpts any
	// Credentials is adapter-defined (e.g. a token, a signer, nil to use
	// ambient credentials).
	Credentials any
	// Consistent requests a strongly-consistent read where the backend
	// has a choice (e.g. DynamoDB's eventually-consistent default reads).
	Consistent bool
}

// Reader reads bytes by inner URI. Every registered backend implements at
// least Reader.
type Reader interface {
	// Read returns the stored bytes, or ok=false if no value is stored at
	// inner. A missing key is not an error.
	Read(ctx context.Context, inner string, opts Opts) (data []byte, ok bool, err error)
}

// Writer writes bytes by inner URI. A write must be durable by the time
// it returns successfully.
type Writer interface {
	Write(ctx context.Context, inner string, data []byte, opts Opts) error
}

// Deleter deletes by inner URI. Deleting an already-missing key succeeds.
type Deleter interface {
	Delete(ctx context.Context, inner string, opts Opts) error
}

// SwapFunc computes the next byte value from the current one. ok is false
// when no value is currently stored (the Absent case).
type SwapFunc func(old []byte, ok bool) ([]byte, error)

// AtomicSwapper is an optional capability: a backend that can apply a
// SwapFunc transactionally against its own storage, without the generic
// optimistic CAS loop the core otherwise falls back to.
type AtomicSwapper interface {
	// AtomicSwap applies fn to the current value and stores the result,
	// returning the new bytes. The backend is responsible for retrying
	// internally (e.g. via its own native CAS primitive) until fn's
	// output is durably stored against the value fn observed.
	AtomicSwap(ctx context.Context, inner string, fn SwapFunc, opts Opts) ([]byte, error)
}

// Backend is the minimum a registered adapter implements: Reader. Writer,
// Deleter, AtomicSwapper, and ConditionalWriter are optional capabilities
// detected by type assertion. Most adapters implement Reader, Writer, and
// Deleter; AtomicSwapper is implemented only by backends with a native
// atomic-swap primitive (redis, dynamodb).
type Backend interface {
	Reader
}

// Registry maps inner-URI schemes to Backends.
//
// A Registry is safe for concurrent use. Like codec.Registry, it is
// effectively write-once after process start; Register is guarded by a
// mutex so tests can still register fakes into isolated instances.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Default is the process-wide registry that concrete backend packages
// register themselves into, either via blank import (backends with no
// required constructor arguments, like mem and file) or by an explicit
// call to Register after construction (backends that need a client, like
// redis and dynamodb).
var Default = NewRegistry()

// Register adds b under scheme.
func (r *Registry) Register(scheme string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[scheme] = b
}

// Register adds b under scheme in the Default registry.
func Register(scheme string, b Backend) {
	Default.Register(scheme, b)
}

// Get resolves scheme to its registered Backend.
func (r *Registry) Get(scheme string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return b, nil
}

// Get resolves scheme against the Default registry.
func Get(scheme string) (Backend, error) {
	return Default.Get(scheme)
}

// Read dispatches to the backend registered for scheme.
func (r *Registry) Read(ctx context.Context, scheme, inner string, opts Opts) ([]byte, bool, error) {
	b, err := r.Get(scheme)
	if err != nil {
		return nil, false, err
	}
	return b.Read(ctx, inner, opts)
}

// Write dispatches to the backend registered for scheme, failing with
// ErrUnsupported if it does not implement Writer.
func (r *Registry) Write(ctx context.Context, scheme, inner string, data []byte, opts Opts) error {
	b, err := r.Get(scheme)
	if err != nil {
		return err
	}
	w, ok := b.(Writer)
	if !ok {
		return fmt.Errorf("%w: scheme %q has no Writer", ErrUnsupported, scheme)
	}
	return w.Write(ctx, inner, data, opts)
}

// Delete dispatches to the backend registered for scheme, failing with
// ErrUnsupported if it does not implement Deleter.
func (r *Registry) Delete(ctx context.Context, scheme, inner string, opts Opts) error {
	b, err := r.Get(scheme)
	if err != nil {
		return err
	}
	d, ok := b.(Deleter)
	if !ok {
		return fmt.Errorf("%w: scheme %q has no Deleter", ErrUnsupported, scheme)
	}
	return d.Delete(ctx, inner, opts)
}

// AtomicSwap dispatches to the backend registered for scheme, failing
// with ErrUnsupported if it does not implement AtomicSwapper. Callers
// that want the generic CAS loop fallback when a backend lacks native
// support should check NativeAtomicSwapper first rather than calling
// this method directly.
func (r *Registry) AtomicSwap(ctx context.Context, scheme, inner string, fn SwapFunc, opts Opts) ([]byte, error) {
	b, err := r.Get(scheme)
	if err != nil {
		return nil, err
	}
	s, ok := b.(AtomicSwapper)
	if !ok {
		return nil, fmt.Errorf("%w: scheme %q has no AtomicSwapper", ErrUnsupported, scheme)
	}
	return s.AtomicSwap(ctx, inner, fn, opts)
}

// NativeAtomicSwapper resolves scheme and reports whether its backend
// implements AtomicSwapper, returning it for use if so. The Atomic
// reference kind uses this to decide whether to delegate natively or fall
// back to the generic CAS loop (package atomic) built on ConditionalWriter.
func (r *Registry) NativeAtomicSwapper(scheme string) (AtomicSwapper, bool, error) {
	b, err := r.Get(scheme)
	if err != nil {
		return nil, false, err
	}
	s, ok := b.(AtomicSwapper)
	return s, ok, nil
}

// NativeAtomicSwapper resolves scheme against the Default registry.
func NativeAtomicSwapper(scheme string) (AtomicSwapper, bool, error) {
	return Default.NativeAtomicSwapper(scheme)
}

// ConditionalWriter is an optional capability backing the generic CAS
// loop's precondition write (§4.4 Atomic, generic path): Write succeeds
// only if the stored version still equals expectVersion (0 meaning "key
// must not currently exist"), and returns the version the write landed
// at. Backends with no native AtomicSwapper but that do implement
// ConditionalWriter (mem, file) let the core's generic CAS loop work
// without hand-rolled backend-specific retry code.
type ConditionalWriter interface {
	WriteIfVersion(ctx context.Context, inner string, data []byte, expectVersion uint64, opts Opts) (newVersion uint64, err error)
	// ReadVersion returns the current bytes and their version together,
	// consistently, for the CAS loop's initial read.
	ReadVersion(ctx context.Context, inner string, opts Opts) (data []byte, version uint64, ok bool, err error)
}

// ErrVersionConflict is returned by ConditionalWriter.WriteIfVersion when
// the stored version no longer matches the expected version.
var ErrVersionConflict = errors.New("backend: version conflict")
