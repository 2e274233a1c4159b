package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_YAML(t *testing.T) {
	t.Parallel()
	format, c, err := Resolve("mem://t/abc123.yaml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", format)
	assert.NotNil(t, c)
}

func TestResolve_CompoundSuffixFallback(t *testing.T) {
	t.Parallel()
	format, c, err := Resolve("mem://t/abc123.yaml.gz")
	require.NoError(t, err)
	assert.Equal(t, "yaml.gz", format)
	require.NotNil(t, c)

	encoded, err := c.Encode(map[string]any{"a": 1}, nil)
	require.NoError(t, err)

	decoded, err := c.Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, decoded)
}

func TestResolve_UnknownFormat(t *testing.T) {
	t.Parallel()
	_, _, err := Resolve("mem://t/abc123.nope")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestResolve_NoSuffixAtAll(t *testing.T) {
	t.Parallel()
	_, _, err := Resolve("mem://t/abc123")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestCBOR_RoundTrip(t *testing.T) {
	t.Parallel()
	c, ok := Default.codecs["cbor"]
	require.True(t, ok)

	v := map[string]any{"x": uint64(1), "y": "two"}
	encoded, err := c.Encode(v, nil)
	require.NoError(t, err)

	decoded, err := c.Decode(encoded, nil)
	require.NoError(t, err)
	assert.Equal(t, v["y"], decoded.(map[string]any)["y"])
}

func TestCBOR_DeterministicEncoding(t *testing.T) {
	t.Parallel()
	v := map[string]any{"b": 1, "a": 2, "c": 3}
	a, err := EncodeFormat("cbor", v, nil)
	require.NoError(t, err)
	b, err := EncodeFormat("cbor", v, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b, "encoding the same value twice must be byte-identical")
}

func TestEncodeFormat_CompoundFormat(t *testing.T) {
	t.Parallel()
	b, err := EncodeFormat("cbor.gz", "hello", nil)
	require.NoError(t, err)

	v, err := Decode("x."+"cbor.gz", b, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestIsolatedRegistry_DoesNotSeeDefault(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, _, err := r.Resolve("mem://t/abc.yaml")
	assert.ErrorIs(t, err, ErrUnknownFormat, "an isolated registry must not inherit Default's codecs")
}
