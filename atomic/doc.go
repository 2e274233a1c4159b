// Package atomic implements the generic optimistic compare-and-swap loop
// that backs the Atomic reference kind when its backend has no native
// atomic-swap primitive: read current bytes and version, apply the
// caller's function, write back with a version precondition, and retry on
// conflict.
//
// The loop is decoupled from both the backend and ref packages: it is
// handed plain read/write closures rather than a backend.Backend, so it
// carries no knowledge of inner URIs, schemes, or reference kinds.
package atomic
