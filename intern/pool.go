package intern

import (
	"runtime"
	"sync"
	"weak"

	"github.com/riverford/durable-ref/uri"
)

// Pool is a process-wide mapping from uri.Descriptor to a weak handle of
// the canonical *T for that URI. A Pool is safe for concurrent use;
// lookup and insertion are atomic with respect to one another under a
// single mutex.
type Pool[T any] struct {
	mu sync.Mutex
	m  map[uri.Descriptor]weak.Pointer[T]
}

// NewPool returns an empty Pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{m: make(map[uri.Descriptor]weak.Pointer[T])}
}

type cleanupArg[T any] struct {
	key uri.Descriptor
	wp  weak.Pointer[T]
}

// Intern returns the canonical *T for key. If a live canonical value is
// already registered, it is returned and candidate is discarded
// (wasCanonical=false). Otherwise candidate itself becomes canonical
// (wasCanonical=true).
func (p *Pool[T]) Intern(key uri.Descriptor, candidate *T) (canonical *T, wasCanonical bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wp, ok := p.m[key]; ok {
		if existing := wp.Value(); existing != nil {
			return existing, false
		}
	}

	wp := weak.Make(candidate)
	p.m[key] = wp
	runtime.AddCleanup(candidate, p.forget, cleanupArg[T]{key: key, wp: wp})
	return candidate, true
}

// forget removes key's entry, but only if it still points at the weak
// pointer whose target just got collected — a newer entry may have
// replaced it in the meantime (insert-after-the-old-one-died races).
func (p *Pool[T]) forget(arg cleanupArg[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.m[arg.key]; ok && cur == arg.wp {
		delete(p.m, arg.key)
	}
}

// Lookup returns the live canonical *T for key, if any.
func (p *Pool[T]) Lookup(key uri.Descriptor) (*T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	wp, ok := p.m[key]
	if !ok {
		return nil, false
	}
	v := wp.Value()
	return v, v != nil
}

// IsInterned reports whether a live canonical value is registered for key.
func (p *Pool[T]) IsInterned(key uri.Descriptor) bool {
	_, ok := p.Lookup(key)
	return ok
}

// Len returns the number of entries currently tracked, live or not yet
// swept. Intended for tests.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
