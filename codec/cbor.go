package codec

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

func init() {
	Register("cbor", cborCodec{enc: mustDeterministicEncMode()})
}

// cborCodec implements Codec using fxamacker/cbor/v2 with Core
// Deterministic Encoding Requirements (RFC 8949 §4.2.1): map keys sorted,
// smallest-possible integer/float encodings, no indefinite-length items.
// This is what makes Encode a pure function of its input, which the
// content-addressed Value kind's persist-idempotence property depends on.
type cborCodec struct {
	enc cbor.EncMode
}

func mustDeterministicEncMode() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: building deterministic cbor encode mode: %v", err))
	}
	return mode
}

func (c cborCodec) Encode(v any, _ any) ([]byte, error) {
	b, err := c.enc.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor: marshal: %w", err)
	}
	return b, nil
}

func (cborCodec) Decode(data []byte, _ any) (any, error) {
	// Decode maps into map[string]any rather than the library's default
	// map[any]any, so string-keyed maps round-trip to the same shape.
	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor: building decode mode: %w", err)
	}
	var v any
	if err := dm.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("cbor: unmarshal: %w", err)
	}
	return v, nil
}
