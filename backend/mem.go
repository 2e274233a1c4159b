package backend

import (
	"context"
	"sync"
)

func init() {
	Register("mem", newMemBackend())
}

type memEntry struct {
	data    []byte
	version uint64
}

// memBackend is a process-local, in-memory backend. It implements
// ConditionalWriter but not AtomicSwapper, so Atomic references over
// "mem" exercise the core's generic CAS retry loop rather than a
// backend-native swap.
type memBackend struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

func newMemBackend() *memBackend {
	return &memBackend{entries: make(map[string]memEntry)}
}

// NewMem returns an isolated, empty in-memory backend, for tests that
// want a fresh "mem" scheme without the cross-test leakage that sharing
// the process-wide Default registry's backend would cause.
func NewMem() *memBackend {
	return newMemBackend()
}

func (m *memBackend) Read(_ context.Context, inner string, _ Opts) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[inner]
	if !ok {
		return nil, false, nil
	}
	// Defensive copy: callers must not be able to mutate storage by
	// mutating a slice they were handed.
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, true, nil
}

func (m *memBackend) Write(_ context.Context, inner string, data []byte, _ Opts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.entries[inner] = memEntry{data: cp, version: m.entries[inner].version + 1}
	return nil
}

func (m *memBackend) Delete(_ context.Context, inner string, _ Opts) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, inner)
	return nil
}

func (m *memBackend) ReadVersion(_ context.Context, inner string, _ Opts) ([]byte, uint64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[inner]
	if !ok {
		return nil, 0, false, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, e.version, true, nil
}

func (m *memBackend) WriteIfVersion(_ context.Context, inner string, data []byte, expectVersion uint64, _ Opts) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.entries[inner].version
	if current != expectVersion {
		return current, ErrVersionConflict
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	newVersion := current + 1
	m.entries[inner] = memEntry{data: cp, version: newVersion}
	return newVersion, nil
}
