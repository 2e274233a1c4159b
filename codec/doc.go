// Package codec resolves and applies encoders/decoders by the format
// suffix on a reference URI's path.
//
// Dispatch is on the rightmost dotted suffix of the URI's last path
// segment, with fallback: given a path ending in "a.b.c", resolution
// first tries the format "b.c", then falls back to "c". This lets a
// dedicated codec register for a compound suffix like "json.gz", or let
// the "gz" wrapper codec delegate to whatever "json" resolves to.
//
// Concrete codecs register themselves with the package-level Default
// registry from an init function, mirroring how database/sql drivers
// register themselves via blank import. The core reference kinds never
// import a concrete codec package directly.
package codec
