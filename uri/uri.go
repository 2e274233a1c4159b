package uri

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a reference URI is malformed: empty, or a
// kind prefix followed by an empty inner URI. A prefix that is not a known
// kind is not rejected; Parse reads it as the scheme of a bare, read-only
// inner URI.
var ErrInvalid = errors.New("uri: invalid reference uri")

// Kind identifies which reference variant a URI's kind prefix selects.
type Kind int

const (
	// ReadOnly is the degenerate kind assigned to a bare inner URI with
	// no kind prefix.
	ReadOnly Kind = iota
	// Value identifies an immutable, content-addressed, cached, interned
	// reference.
	Value
	// Volatile identifies a mutable reference with no concurrency
	// coordination.
	Volatile
	// Atomic identifies a mutable reference supporting compare-and-swap.
	Atomic
)

// String returns the kind's lowercase name, or "" for ReadOnly, which has
// no prefix of its own.
func (k Kind) String() string {
	switch k {
	case Value:
		return "value"
	case Volatile:
		return "volatile"
	case Atomic:
		return "atomic"
	case ReadOnly:
		return ""
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case "value":
		return Value, true
	case "volatile":
		return Volatile, true
	case "atomic":
		return Atomic, true
	default:
		return 0, false
	}
}

// Descriptor is a parsed, normalized reference URI. It is a comparable
// struct: two Descriptors are == iff they were parsed from (or would
// stringify to) the same normalized form.
type Descriptor struct {
	kind  Kind
	inner string // lowercase, normalized, kind prefix stripped
}

// Kind returns the reference kind the URI's prefix selected.
func (d Descriptor) Kind() Kind { return d.kind }

// Inner returns the inner URI, i.e. the URI with the kind prefix stripped.
// For a ReadOnly descriptor this is identical to String.
func (d Descriptor) Inner() string { return d.inner }

// String returns the canonical, lowercase form of the reference URI: the
// form Parse(d.String()) is guaranteed to re-produce an equal Descriptor.
func (d Descriptor) String() string {
	if d.kind == ReadOnly {
		return d.inner
	}
	return d.kind.String() + ":" + d.inner
}

// Parse parses and normalizes a reference URI.
//
// The URI is lowercased in its entirety before classification, so case is
// not preserved across a Parse/String round trip; this is a deliberate
// normalization, not a side effect of any particular backend.
func Parse(s string) (Descriptor, error) {
	if s == "" {
		return Descriptor{}, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	lower := strings.ToLower(s)

	if idx := strings.Index(lower, ":"); idx >= 0 {
		if kind, ok := parseKind(lower[:idx]); ok {
			inner := lower[idx+1:]
			if inner == "" {
				return Descriptor{}, fmt.Errorf("%w: %q has empty inner uri", ErrInvalid, s)
			}
			return Descriptor{kind: kind, inner: inner}, nil
		}
	}

	// No recognized kind prefix: the whole string is a bare, read-only
	// inner URI. This also covers inner URIs whose own scheme happens to
	// contain a colon-terminated prefix that isn't "value"/"volatile"/
	// "atomic" (e.g. "mem://t/x.json").
	return Descriptor{kind: ReadOnly, inner: lower}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level URI constants, never for handling untrusted input.
func MustParse(s string) Descriptor {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Scheme returns the inner URI's scheme component, i.e. everything before
// the first colon of the inner URI.
func (d Descriptor) Scheme() string {
	if idx := strings.Index(d.inner, ":"); idx >= 0 {
		return d.inner[:idx]
	}
	return ""
}

// LastSegment returns the final "/"-separated segment of the inner URI's
// path, which carries the format suffix (and, for Value kind, the
// content-addressed hash).
func (d Descriptor) LastSegment() string {
	// Strip any query/fragment before splitting into segments.
	path := d.inner
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// WithKind returns a new Descriptor with the same inner URI but a
// different kind. Used by reference kinds to construct aliases of one
// another's URIs (e.g. a Volatile alias of a Value reference's inner URI,
// used in tests to simulate external mutation).
func (d Descriptor) WithKind(k Kind) Descriptor {
	return Descriptor{kind: k, inner: d.inner}
}
