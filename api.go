package ref

import (
	"context"

	"github.com/riverford/durable-ref/uri"
)

// Parse parses and normalizes a reference URI string. It is a thin
// re-export of uri.Parse, letting callers of this package avoid an extra
// import for the common case.
func Parse(s string) (uri.Descriptor, error) {
	return uri.Parse(s)
}

// Reference resolves a reference URI string to its Reference. For Value
// kind, this goes through the intern pool: repeated calls with the same
// URI, or a URI a live Persist result shares, return the identically
// equal canonical instance (§4.7, §8 property 5).
func Reference(s string) (Reference, error) {
	d, err := uri.Parse(s)
	if err != nil {
		return nil, err
	}
	return ReferenceFor(d), nil
}

// ReferenceFor builds the Reference for an already-parsed descriptor, per
// d's kind.
func ReferenceFor(d uri.Descriptor) Reference {
	switch d.Kind() {
	case uri.Value:
		return valueFor(d)
	case uri.Volatile:
		return &Volatile{d: d}
	case uri.Atomic:
		return &Atomic{d: d}
	default:
		return &ReadOnly{d: d}
	}
}

// Deref is a convenience wrapper: Reference(s) followed by Deref.
func Deref(ctx context.Context, s string, opts Options) (any, error) {
	r, err := Reference(s)
	if err != nil {
		return nil, err
	}
	return r.Deref(ctx, opts)
}
