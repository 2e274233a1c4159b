package ref

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverford/durable-ref/backend"
)

func TestAtomic_ConcurrentIncrements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("atomic:mem://concurrent-counter/ctr.yaml")
	require.NoError(t, err)
	a := r.(*Atomic)

	const goroutines, perGoroutine = 10, 100
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				_, err := a.AtomicSwap(ctx, func(old any, ok bool) (any, error) {
					n := 0
					if ok {
						n = old.(int)
					}
					return n + 1, nil
				}, Options{})
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	final, err := a.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, goroutines*perGoroutine, final)
}

func TestAtomic_ShortCircuitsOnNoChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("atomic:mem://no-change/ctr.yaml")
	require.NoError(t, err)
	a := r.(*Atomic)

	_, err = a.AtomicSwap(ctx, func(old any, ok bool) (any, error) {
		return 1, nil
	}, Options{})
	require.NoError(t, err)

	result, err := a.AtomicSwap(ctx, func(old any, ok bool) (any, error) {
		return old, nil
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result)
}

func TestAtomic_Reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("atomic:mem://reset/ctr.yaml")
	require.NoError(t, err)
	a := r.(*Atomic)

	require.NoError(t, a.Overwrite(ctx, "initial", Options{}))
	got, err := a.Reset(ctx, "forced", Options{})
	require.NoError(t, err)
	assert.Equal(t, "forced", got)

	deref, err := a.Deref(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "forced", deref)
}

func TestAtomic_CasAbortedOnBackoffRefusal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	r, err := Reference("atomic:mem://backoff-abort/ctr.yaml")
	require.NoError(t, err)
	a := r.(*Atomic)
	require.NoError(t, a.Overwrite(ctx, 0, Options{}))

	alias, err := Reference("volatile:mem://backoff-abort/ctr.yaml")
	require.NoError(t, err)

	_, err = a.AtomicSwap(ctx, func(old any, ok bool) (any, error) {
		// Simulate a concurrent external writer landing between this
		// loop's read and its conditional write, forcing a version
		// conflict on the very first attempt.
		require.NoError(t, alias.(*Volatile).Overwrite(ctx, 999, Options{}))
		return 1, nil
	}, Options{CASBackoff: func(retry int) (time.Duration, bool) {
		return 0, false
	}})
	assert.ErrorIs(t, err, ErrCasAborted)
}

func TestAtomic_UnsupportedOperationOnSchemeWithNeitherCapability(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend.Register("readonlyscheme", readerOnlyBackend{})

	r, err := Reference(fmt.Sprintf("atomic:readonlyscheme://x/%s.yaml", "y"))
	require.NoError(t, err)
	a := r.(*Atomic)

	_, err = a.AtomicSwap(ctx, func(old any, ok bool) (any, error) {
		return 1, nil
	}, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

// readerOnlyBackend implements backend.Reader and nothing else: neither
// AtomicSwapper nor ConditionalWriter.
type readerOnlyBackend struct{}

func (readerOnlyBackend) Read(context.Context, string, backend.Opts) ([]byte, bool, error) {
	return nil, false, nil
}
