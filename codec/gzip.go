package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

func init() {
	Register("gz", gzipCodec{})
}

// gzipCodec is the compression-wrapper codec named in §4.2: registered
// under the bare suffix "gz", it is never returned standalone by the
// registry's resolution and is instead bound to an inner codec via
// WithInner whenever a path's format suffix resolves to "<inner>.gz".
// On the zero value (no inner codec bound), Encode accepts only []byte
// and gzip-compresses it, and Decode returns the decompressed bytes.
type gzipCodec struct {
	inner Codec
}

// WithInner implements Wrapper.
func (gzipCodec) WithInner(inner Codec) Codec {
	return gzipCodec{inner: inner}
}

func (c gzipCodec) Encode(v any, opts any) ([]byte, error) {
	var payload []byte
	if c.inner != nil {
		b, err := c.inner.Encode(v, opts)
		if err != nil {
			return nil, err
		}
		payload = b
	} else {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("gzip: no inner codec bound and value is not []byte (%T)", v)
		}
		payload = b
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, fmt.Errorf("gzip: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip: compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (c gzipCodec) Decode(data []byte, opts any) (any, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: decompress: %w", err)
	}
	defer r.Close()

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: decompress: %w", err)
	}

	if c.inner == nil {
		return payload, nil
	}
	return c.inner.Decode(payload, opts)
}
