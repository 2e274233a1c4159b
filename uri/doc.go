// Package uri parses and classifies durable-reference URIs.
//
// A reference URI has the shape "<kind>:<inner-uri>" where kind is one of
// "value", "volatile", "atomic", or the kind prefix is absent entirely, in
// which case the URI denotes a read-only reference over the bare inner URI.
// The inner URI carries a scheme that selects a backend and a path whose
// last segment ends in a dotted format suffix that selects a codec.
//
// Descriptor is a comparable struct, not an interface: re-parsing the
// string form of a Descriptor always yields an equal Descriptor, and two
// Descriptors compare equal with == iff their normalized string forms are
// equal. This backs the equality rule reference kinds are built on.
package uri
