package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMem_ReadWriteDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMem()

	_, ok, err := m.Read(ctx, "t/x", Opts{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Write(ctx, "t/x", []byte("hello"), Opts{}))
	data, ok, err := m.Read(ctx, "t/x", Opts{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	require.NoError(t, m.Delete(ctx, "t/x", Opts{}))
	require.NoError(t, m.Delete(ctx, "t/x", Opts{}), "deleting a missing key must succeed")
	_, ok, err = m.Read(ctx, "t/x", Opts{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMem_WriteIfVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMem()

	_, _, ok, err := m.ReadVersion(ctx, "t/ctr", Opts{})
	require.NoError(t, err)
	assert.False(t, ok)

	v1, err := m.WriteIfVersion(ctx, "t/ctr", []byte("1"), 0, Opts{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1)

	_, err = m.WriteIfVersion(ctx, "t/ctr", []byte("2"), 0, Opts{})
	assert.ErrorIs(t, err, ErrVersionConflict)

	v2, err := m.WriteIfVersion(ctx, "t/ctr", []byte("2"), v1, Opts{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2)
}

func TestFile_ReadWriteDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFile(t.TempDir())

	_, ok, err := f.Read(ctx, "t/x.yaml", Opts{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.Write(ctx, "t/x.yaml", []byte("a: 1\n"), Opts{}))
	data, ok, err := f.Read(ctx, "t/x.yaml", Opts{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a: 1\n"), data)

	require.NoError(t, f.Delete(ctx, "t/x.yaml", Opts{}))
	_, ok, err = f.Read(ctx, "t/x.yaml", Opts{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_ShardsContentAddressedNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFile(dir)

	hash := "da39a3ee5e6b4b0d3255bfef95601890afd80709" // sha1("")
	inner := "t/" + hash + ".yaml"

	require.NoError(t, f.Write(ctx, inner, []byte("x"), Opts{}))

	p, err := f.path(inner)
	require.NoError(t, err)
	assert.Contains(t, p, "/"+hash[:2]+"/", "content-addressed names should be sharded by hash prefix")

	data, ok, err := f.Read(ctx, inner, Opts{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), data)
}

func TestFile_WriteIfVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFile(t.TempDir())

	v1, err := f.WriteIfVersion(ctx, "t/ctr.yaml", []byte("1"), 0, Opts{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1)

	_, err = f.WriteIfVersion(ctx, "t/ctr.yaml", []byte("2"), 0, Opts{})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestRegistry_UnknownScheme(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	_, _, err := r.Read(context.Background(), "nope", "x", Opts{})
	assert.Error(t, err)
}

func TestRegistry_WriteUnsupported(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("readonly", readOnlyBackend{})
	err := r.Write(context.Background(), "readonly", "x", []byte("y"), Opts{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

type readOnlyBackend struct{}

func (readOnlyBackend) Read(context.Context, string, Opts) ([]byte, bool, error) {
	return nil, false, nil
}

func TestDefaultRegistry_HasMemAndFile(t *testing.T) {
	t.Parallel()
	_, err := Get("mem")
	assert.NoError(t, err)
	_, err = Get("file")
	assert.NoError(t, err)
}
