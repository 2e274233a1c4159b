package atomic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	data    []byte
	ok      bool
	version uint64
}

func (s *fakeStore) read(context.Context) ([]byte, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.version, s.ok, nil
}

func (s *fakeStore) write(_ context.Context, data []byte, expectVersion uint64) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != expectVersion {
		return s.version, true, nil
	}
	s.data = data
	s.ok = true
	s.version++
	return s.version, false, nil
}

func TestRun_SucceedsWithoutContention(t *testing.T) {
	t.Parallel()
	s := &fakeStore{}
	result, err := Run(context.Background(), s.read, s.write, func(old []byte, ok bool) ([]byte, error) {
		assert.False(t, ok)
		return []byte("1"), nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), result)
}

func TestRun_ShortCircuitsOnNoChange(t *testing.T) {
	t.Parallel()
	s := &fakeStore{data: []byte("x"), ok: true, version: 3}
	writes := 0
	wrap := func(ctx context.Context, data []byte, expectVersion uint64) (uint64, bool, error) {
		writes++
		return s.write(ctx, data, expectVersion)
	}
	result, err := Run(context.Background(), s.read, wrap, func(old []byte, ok bool) ([]byte, error) {
		return old, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), result)
	assert.Zero(t, writes, "no write should happen when apply returns the same value")
}

func TestRun_RetriesOnConflictThenSucceeds(t *testing.T) {
	t.Parallel()
	s := &fakeStore{}
	var once sync.Once
	attempts := 0
	result, err := Run(context.Background(), s.read, func(ctx context.Context, data []byte, expectVersion uint64) (uint64, bool, error) {
		attempts++
		once.Do(func() {
			// simulate a concurrent writer landing between read and write
			// on the first attempt only.
			s.mu.Lock()
			s.version = 7
			s.mu.Unlock()
		})
		return s.write(ctx, data, expectVersion)
	}, func(old []byte, ok bool) ([]byte, error) {
		return []byte("final"), nil
	}, func(int) (time.Duration, bool) { return 0, true })
	require.NoError(t, err)
	assert.Equal(t, []byte("final"), result)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestRun_AbortsWhenBackoffRefuses(t *testing.T) {
	t.Parallel()
	s := &fakeStore{}
	alwaysConflict := func(context.Context, []byte, uint64) (uint64, bool, error) {
		return 0, true, nil
	}
	_, err := Run(context.Background(), s.read, alwaysConflict, func(old []byte, ok bool) ([]byte, error) {
		return []byte("x"), nil
	}, func(int) (time.Duration, bool) { return 0, false })
	assert.ErrorIs(t, err, ErrAborted)
}
