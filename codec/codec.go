package codec

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownFormat is returned when no registered codec matches any
// right-to-left suffix of a path's last segment.
var ErrUnknownFormat = errors.New("codec: unknown format")

// Codec encodes and decodes values for one format suffix.
//
// Encode/Decode must be referentially pure with respect to the registry:
// the same value, format, and opts must always produce the same bytes
// (and vice versa). The registry performs no caching of its own beyond
// this purity guarantee; value caching is the Value reference's concern.
type Codec interface {
	// Encode serializes v. opts is adapter-defined and may be nil.
	Encode(v any, opts any) ([]byte, error)
	// Decode deserializes data into a value. opts is adapter-defined and
	// may be nil.
	Decode(data []byte, opts any) (any, error)
}

// Wrapper is a Codec that delegates the decompressed/unwrapped payload to
// another Codec, such as a compression layer stacked on a base format.
// A Wrapper registers under its own suffix (e.g. "gz") and is only
// consulted for the trailing suffix component; WithInner binds it to the
// codec resolved from the remaining suffix (e.g. "json" in "json.gz").
type Wrapper interface {
	Codec
	// WithInner returns a Codec that applies this wrapper's
	// compression/framing around calls delegated to inner.
	WithInner(inner Codec) Codec
}

// Registry maps format suffixes to Codecs.
//
// A Registry is safe for concurrent use. It is effectively write-once in
// normal operation (codecs register themselves at init time), but
// Register may be called at any point, guarded by a mutex.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// Default is the process-wide registry that concrete codec packages
// register themselves into via blank import. The core reference kinds
// use Default unless a caller supplies an isolated Registry explicitly.
var Default = NewRegistry()

// Register adds c under format. A later call with the same format
// replaces the earlier codec; this is intentional so that tests can
// shadow a production codec with a fake.
func (r *Registry) Register(format string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = c
}

// Register adds c under format in the Default registry.
func Register(format string, c Codec) {
	Default.Register(format, c)
}

// Resolve returns the codec matching the longest registered right-to-left
// suffix of path's last segment, and the format string that matched.
//
// Given a last segment "a.b.c", resolution tries "b.c" first, then "c";
// it never tries the whole string "a.b.c" including the first ("name")
// component, since that component is the stem the format suffix is
// attached to (e.g. a content hash for Value references).
func (r *Registry) Resolve(path string) (format string, c Codec, err error) {
	last := lastSegment(path)
	segs := strings.Split(last, ".")
	if len(segs) < 2 {
		return "", nil, fmt.Errorf("%w: %q has no format suffix", ErrUnknownFormat, path)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// First pass: dedicated, non-wrapping codecs, longest suffix first
	// (e.g. a codec registered under the exact compound name "json.gz").
	for i := 1; i < len(segs); i++ {
		candidate := strings.Join(segs[i:], ".")
		codec, ok := r.codecs[candidate]
		if !ok {
			continue
		}
		if _, isWrapper := codec.(Wrapper); isWrapper {
			continue
		}
		return candidate, codec, nil
	}

	// Second pass: a wrapper registered under the trailing suffix
	// component delegates to whatever the remaining suffix resolves to.
	trailing := segs[len(segs)-1]
	if codec, ok := r.codecs[trailing]; ok {
		if wrapper, isWrapper := codec.(Wrapper); isWrapper {
			if len(segs) > 2 {
				innerFormat := strings.Join(segs[1:len(segs)-1], ".")
				if inner, ok := r.codecs[innerFormat]; ok {
					return innerFormat + "." + trailing, wrapper.WithInner(inner), nil
				}
			}
		}
	}

	return "", nil, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Resolve resolves path against the Default registry.
func Resolve(path string) (format string, c Codec, err error) {
	return Default.Resolve(path)
}

// GetEncoder resolves path to a Codec usable as an encoder.
func (r *Registry) GetEncoder(path string) (Codec, error) {
	_, c, err := r.Resolve(path)
	return c, err
}

// GetDecoder resolves path to a Codec usable as a decoder.
func (r *Registry) GetDecoder(path string) (Codec, error) {
	_, c, err := r.Resolve(path)
	return c, err
}

// Encode resolves path and encodes v.
func (r *Registry) Encode(path string, v any, opts any) ([]byte, error) {
	format, c, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	b, err := c.Encode(v, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", format, err)
	}
	return b, nil
}

// Encode resolves path against the Default registry and encodes v.
func Encode(path string, v any, opts any) ([]byte, error) {
	return Default.Encode(path, v, opts)
}

// Decode resolves path and decodes data.
func (r *Registry) Decode(path string, data []byte, opts any) (any, error) {
	format, c, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: decode %q: %w", format, err)
	}
	return v, nil
}

// Decode resolves path against the Default registry and decodes data.
func Decode(path string, data []byte, opts any) (any, error) {
	return Default.Decode(path, data, opts)
}

// EncodeFormat encodes v with exactly the named format, bypassing suffix
// resolution. Used by Persist, which already knows the format it was
// asked to write in. format may itself be a compound suffix (e.g.
// "json.gz"), resolved the same way Resolve would resolve it from a path
// ending in that suffix.
func (r *Registry) EncodeFormat(format string, v any, opts any) ([]byte, error) {
	c, err := r.codecByFormat(format)
	if err != nil {
		return nil, err
	}
	b, err := c.Encode(v, opts)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %q: %w", format, err)
	}
	return b, nil
}

// codecByFormat resolves format directly, without the path/stem
// convention Resolve uses: format is assumed to already exclude any
// content-hash or other filename stem.
func (r *Registry) codecByFormat(format string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.codecs[format]; ok {
		if _, isWrapper := c.(Wrapper); !isWrapper {
			return c, nil
		}
	}

	segs := strings.Split(format, ".")
	if len(segs) >= 2 {
		trailing := segs[len(segs)-1]
		if c, ok := r.codecs[trailing]; ok {
			if wrapper, isWrapper := c.(Wrapper); isWrapper {
				innerFormat := strings.Join(segs[:len(segs)-1], ".")
				if inner, ok := r.codecs[innerFormat]; ok {
					return wrapper.WithInner(inner), nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// EncodeFormat encodes v with exactly the named format in the Default
// registry.
func EncodeFormat(format string, v any, opts any) ([]byte, error) {
	return Default.EncodeFormat(format, v, opts)
}

func lastSegment(path string) string {
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
