package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/riverford/durable-ref/backend"
)

// maxSwapAttempts bounds the internal retry loop AtomicSwap uses to cope
// with a concurrent writer landing between its read and its conditional
// write. It is not the CAS back-off hook from SPEC_FULL.md §4.4 — that
// hook governs the core's generic loop; this backend never surfaces a
// conflict to the core because it is a native AtomicSwapper.
const maxSwapAttempts = 64

// getScript fetches the current data+version in one round trip.
var getScript = goredis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'data', 'version')
return v
`)

// swapScript applies the precomputed new value iff the stored version
// still equals the version the caller observed (0 meaning "key must not
// exist yet"), returning the new version, or -1 on conflict.
var swapScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
local currentVersion = 0
if current then
	currentVersion = tonumber(current)
end
if currentVersion ~= tonumber(ARGV[2]) then
	return -1
end
local newVersion = currentVersion + 1
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'version', tostring(newVersion))
return newVersion
`)

// Backend implements backend.Reader, backend.Writer, backend.Deleter, and
// backend.AtomicSwapper over a Redis client.
type Backend struct {
	client *goredis.Client
}

// New wraps an existing go-redis client. The caller owns the client's
// lifecycle (including Close).
func New(client *goredis.Client) *Backend {
	return &Backend{client: client}
}

// Register constructs a Backend from addr and registers it under scheme
// "redis" in backend.Default. It is a convenience for callers that don't
// need to manage the underlying client themselves.
func Register(addr string) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: connecting to %s: %w", addr, err)
	}
	b := New(client)
	backend.Register("redis", b)
	return b, nil
}

func (b *Backend) Read(ctx context.Context, inner string, _ backend.Opts) ([]byte, bool, error) {
	res, err := b.client.HMGet(ctx, inner, "data", "version").Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis: read %q: %w", inner, err)
	}
	if len(res) == 0 || res[0] == nil {
		return nil, false, nil
	}
	s, ok := res[0].(string)
	if !ok {
		return nil, false, fmt.Errorf("redis: read %q: unexpected data type", inner)
	}
	return []byte(s), true, nil
}

func (b *Backend) Write(ctx context.Context, inner string, data []byte, _ backend.Opts) error {
	current, err := b.client.HGet(ctx, inner, "version").Result()
	var version int64
	if err == nil {
		version, _ = strconv.ParseInt(current, 10, 64)
	} else if !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis: write %q: %w", inner, err)
	}
	if err := b.client.HSet(ctx, inner, "data", data, "version", version+1).Err(); err != nil {
		return fmt.Errorf("redis: write %q: %w", inner, err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, inner string, _ backend.Opts) error {
	if err := b.client.Del(ctx, inner).Err(); err != nil {
		return fmt.Errorf("redis: delete %q: %w", inner, err)
	}
	return nil
}

func (b *Backend) AtomicSwap(ctx context.Context, inner string, fn backend.SwapFunc, _ backend.Opts) ([]byte, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		raw, err := getScript.Run(ctx, b.client, []string{inner}).Slice()
		if err != nil {
			return nil, fmt.Errorf("redis: atomic_swap %q: read: %w", inner, err)
		}

		var old []byte
		var ok bool
		var version int64
		if len(raw) > 0 && raw[0] != nil {
			old = []byte(raw[0].(string))
			ok = true
		}
		if len(raw) > 1 && raw[1] != nil {
			version, _ = strconv.ParseInt(raw[1].(string), 10, 64)
		}

		next, err := fn(old, ok)
		if err != nil {
			return nil, err
		}

		result, err := swapScript.Run(ctx, b.client, []string{inner}, next, version).Int64()
		if err != nil {
			return nil, fmt.Errorf("redis: atomic_swap %q: write: %w", inner, err)
		}
		if result == -1 {
			continue // lost the race to a concurrent writer; retry
		}
		return next, nil
	}
	return nil, fmt.Errorf("redis: atomic_swap %q: exceeded %d attempts under contention", inner, maxSwapAttempts)
}

var (
	_ backend.Reader        = (*Backend)(nil)
	_ backend.Writer        = (*Backend)(nil)
	_ backend.Deleter       = (*Backend)(nil)
	_ backend.AtomicSwapper = (*Backend)(nil)
)
