package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func init() {
	Register("yaml", yamlCodec{})
}

// yamlCodec implements Codec using gopkg.in/yaml.v3.
//
// Decode produces map[string]any (map[any]any when a map has non-string
// keys) / []any / scalar shapes (yaml.v3's default unmarshal-into-any
// behavior), never a concrete struct, since the registry has no type
// information to decode into.
type yamlCodec struct{}

func (yamlCodec) Encode(v any, _ any) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml: marshal: %w", err)
	}
	return b, nil
}

func (yamlCodec) Decode(data []byte, _ any) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml: unmarshal: %w", err)
	}
	return v, nil
}
