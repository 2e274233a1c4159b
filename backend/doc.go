// Package backend resolves and dispatches to byte-level storage
// primitives by a reference URI's inner scheme.
//
// A backend registers under one scheme name and implements Reader at
// minimum; Writer, Deleter, and AtomicSwapper are optional capabilities
// detected by type assertion at dispatch time. A reference kind that
// needs a capability the resolved backend doesn't implement fails with
// ErrUnsupported rather than panicking or silently degrading.
//
// The registry does not itself retry, queue, or multiplex; those are
// backend concerns, same as for the teacher's registry/cache layer.
package backend
