// Package intern provides a process-wide, weak-keyed canonicalization pool:
// at most one live canonical *T exists per uri.Descriptor key at any
// moment. It is generic so the ref package's Value type need not live in
// (or be imported by) this package, avoiding a cycle.
//
// Built on weak.Pointer and runtime.AddCleanup (Go 1.24), so the pool
// itself never keeps a canonical value alive; when the last strong
// reference is released, the entry becomes collectable and a subsequent
// lookup creates a new canonical value with an empty cache.
package intern
