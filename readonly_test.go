package ref

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOnly_DerefAndMutationEnforcement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	volatileView, err := Reference("volatile:mem://bare-uri/x.yaml")
	require.NoError(t, err)
	require.NoError(t, volatileView.(*Volatile).Overwrite(ctx, "value", Options{}))

	bare, err := Reference("mem://bare-uri/x.yaml")
	require.NoError(t, err)
	assert.True(t, bare.IsReadOnly())

	got, err := bare.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	err = bare.Overwrite(ctx, "other", Options{})
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = bare.Delete(ctx, Options{})
	assert.True(t, errors.Is(err, ErrReadOnly))

	_, err = bare.AtomicSwap(ctx, func(old any, ok bool) (any, error) { return old, nil }, Options{})
	assert.True(t, errors.Is(err, ErrReadOnly))

	bare.Evict()
}
