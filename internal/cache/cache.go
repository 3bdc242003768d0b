// Package cache is the advisory key/value layer in front of the relational
// store. No operation here reports an error to its caller: a broken or
// disabled cache behaves like an empty one.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a best-effort string store. Get and Exists report a miss when the
// backend is unreachable; writes are dropped.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPattern(ctx context.Context, pattern string)
	Exists(ctx context.Context, key string) bool
}

// Nop never stores anything. It stands in when caching is disabled.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool)         { return "", false }
func (Nop) Set(context.Context, string, string, time.Duration) {}
func (Nop) Delete(context.Context, string)                     {}
func (Nop) DeleteByPattern(context.Context, string)            {}
func (Nop) Exists(context.Context, string) bool                { return false }

var _ Cache = Nop{}

// Fetch returns the JSON value stored under key, or calls load and stores its
// result for ttl. An undecodable entry counts as a miss. Errors from load are
// returned as-is and nothing is cached for them.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if raw, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	Store(ctx, c, key, v, ttl)
	return v, nil
}

// Store JSON-encodes v under key. Encoding failures are ignored.
func Store(ctx context.Context, c Cache, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(ctx, key, string(b), ttl)
}
