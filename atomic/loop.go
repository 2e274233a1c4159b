package atomic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrAborted is returned when a BackoffFunc elects to stop retrying.
var ErrAborted = errors.New("atomic: cas loop aborted by back-off hook")

// BackoffFunc is invoked between CAS retries with the zero-based retry
// index of the conflict that just occurred. Returning ok=false aborts the
// loop with ErrAborted; nil is equivalent to a BackoffFunc that always
// returns (0, true), i.e. retry immediately, unbounded.
type BackoffFunc func(retry int) (time.Duration, bool)

// ExponentialBackoff returns a BackoffFunc built on
// github.com/cenkalti/backoff/v4: exponential delay with jitter, bounded
// to a modest number of retries, suitable as an out-of-the-box default
// for callers who don't want to hand-tune their own.
func ExponentialBackoff() BackoffFunc {
	const maxRetries = 20
	b := backoff.NewExponentialBackOff()
	return func(retry int) (time.Duration, bool) {
		if retry >= maxRetries {
			return 0, false
		}
		return b.NextBackOff(), true
	}
}

// ReadFunc reads the current bytes and version, consistently.
type ReadFunc func(ctx context.Context) (data []byte, version uint64, ok bool, err error)

// WriteFunc writes data with the precondition that the stored version
// still equals expectVersion (0 meaning "must not currently exist").
// conflict=true signals a precondition failure distinct from any other
// error, telling the loop to retry rather than abort.
type WriteFunc func(ctx context.Context, data []byte, expectVersion uint64) (newVersion uint64, conflict bool, err error)

// Run performs the generic CAS loop: read, apply, write-if-version,
// retrying on conflict per backoff. apply's old/ok mirror ReadFunc's
// data/ok; when apply returns a value equal to old (and old existed), Run
// short-circuits and returns it without writing.
func Run(ctx context.Context, read ReadFunc, write WriteFunc, apply func(old []byte, ok bool) ([]byte, error), backoff BackoffFunc) ([]byte, error) {
	for retry := 0; ; retry++ {
		old, version, ok, err := read(ctx)
		if err != nil {
			return nil, fmt.Errorf("atomic: read: %w", err)
		}

		next, err := apply(old, ok)
		if err != nil {
			return nil, err
		}

		if ok && bytes.Equal(next, old) {
			return next, nil
		}

		_, conflict, err := write(ctx, next, version)
		if err != nil {
			return nil, fmt.Errorf("atomic: write: %w", err)
		}
		if !conflict {
			return next, nil
		}

		if backoff == nil {
			continue
		}
		delay, proceed := backoff(retry)
		if !proceed {
			return nil, ErrAborted
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}
