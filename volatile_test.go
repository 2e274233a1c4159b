package ref

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolatile_OverwriteCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("volatile:mem://volatile-cycle/x.yaml")
	require.NoError(t, err)
	vo := r.(*Volatile)

	_, err = vo.Deref(ctx, Options{})
	assert.ErrorIs(t, err, ErrMissingValue)

	require.NoError(t, vo.Overwrite(ctx, "foo", Options{}))
	got, err := vo.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "foo", got)

	require.NoError(t, vo.Overwrite(ctx, "bar", Options{}))
	got, err = vo.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "bar", got)

	require.NoError(t, vo.Delete(ctx, Options{}))
	_, err = vo.Deref(ctx, Options{})
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestVolatile_DeleteIdempotence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("volatile:mem://delete-idempotence/x.yaml")
	require.NoError(t, err)
	vo := r.(*Volatile)

	require.NoError(t, vo.Overwrite(ctx, "anything", Options{}))
	require.NoError(t, vo.Delete(ctx, Options{}))
	require.NoError(t, vo.Delete(ctx, Options{}), "deleting an already-missing key must succeed")

	_, err = vo.Deref(ctx, Options{})
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestVolatile_IsNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("volatile:mem://no-cache/x.yaml")
	require.NoError(t, err)
	vo := r.(*Volatile)

	require.NoError(t, vo.Overwrite(ctx, "first", Options{}))
	v1, err := vo.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "first", v1)

	require.NoError(t, vo.Overwrite(ctx, "second", Options{}))
	v2, err := vo.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "second", v2)
}
