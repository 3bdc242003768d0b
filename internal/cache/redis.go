package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	maxTries  = 3
	scanCount = 100
)

// Options tune a Redis cache. Zero values fall back to defaults.
type Options struct {
	// RetryBase is multiplied by the attempt number between retries.
	RetryBase time.Duration
	Logger    *zap.Logger
	// Registerer receives cache_operations_total when set.
	Registerer prometheus.Registerer
}

// ClientOptions returns go-redis options with the client's own retries
// disabled, so each cache attempt is a single round trip.
func ClientOptions(addr, password string, db int) *redis.Options {
	return &redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		MaxRetries: -1,
	}
}

// Redis is a Cache backed by a go-redis client. It is safe for concurrent use.
type Redis struct {
	client    redis.UniversalClient
	base      time.Duration
	log       *zap.Logger
	ops       *prometheus.CounterVec
	connected atomic.Bool
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps client. The connection is checked lazily on first use.
func NewRedis(client redis.UniversalClient, opt Options) (*Redis, error) {
	r := &Redis{
		client: client,
		base:   opt.RetryBase,
		log:    opt.Logger,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Cache operations by outcome.",
			},
			[]string{"op", "result"},
		),
	}
	if r.base <= 0 {
		r.base = 100 * time.Millisecond
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if opt.Registerer != nil {
		if err := opt.Registerer.Register(r.ops); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// linearBackOff waits base, 2*base, 3*base, ...
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// ensureConnected pings the server when the last call failed or none was made yet.
func (r *Redis) ensureConnected(ctx context.Context) bool {
	if r.connected.Load() {
		return true
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.log.Warn("cache_connect_failed", zap.Error(err))
		return false
	}
	r.connected.Store(true)
	r.log.Info("cache_connected")
	return true
}

func do[T any](ctx context.Context, r *Redis, op string, fn func() (T, error)) (T, bool) {
	var zero T
	if !r.ensureConnected(ctx) {
		r.ops.WithLabelValues(op, "unavailable").Inc()
		return zero, false
	}
	v, err := backoff.Retry(ctx, fn,
		backoff.WithBackOff(&linearBackOff{base: r.base}),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.log.Debug("cache_retry", zap.String("op", op), zap.Duration("wait", wait), zap.Error(err))
		}),
	)
	if err != nil {
		r.connected.Store(false)
		r.ops.WithLabelValues(op, "error").Inc()
		r.log.Warn("cache_operation_failed", zap.String("op", op), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	type result struct {
		val string
		hit bool
	}
	res, ok := do(ctx, r, "get", func() (result, error) {
		v, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return result{}, nil
		}
		if err != nil {
			return result{}, err
		}
		return result{val: v, hit: true}, nil
	})
	if !ok {
		return "", false
	}
	if res.hit {
		r.ops.WithLabelValues("get", "hit").Inc()
	} else {
		r.ops.WithLabelValues("get", "miss").Inc()
	}
	return res.val, res.hit
}

// Set stores value. A non-positive ttl keeps the key until it is deleted.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	if _, ok := do(ctx, r, "set", func() (struct{}, error) {
		return struct{}{}, r.client.Set(ctx, key, value, ttl).Err()
	}); ok {
		r.ops.WithLabelValues("set", "ok").Inc()
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if _, ok := do(ctx, r, "delete", func() (struct{}, error) {
		return struct{}{}, r.client.Del(ctx, key).Err()
	}); ok {
		r.ops.WithLabelValues("delete", "ok").Inc()
	}
}

// DeleteByPattern removes every key matching the glob pattern in one DEL.
// No match is a no-op.
func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) {
	n, ok := do(ctx, r, "delete_pattern", func() (int, error) {
		var keys []string
		iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return 0, err
		}
		if len(keys) == 0 {
			return 0, nil
		}
		return len(keys), r.client.Del(ctx, keys...).Err()
	})
	if ok {
		r.ops.WithLabelValues("delete_pattern", "ok").Inc()
		r.log.Debug("cache_pattern_deleted", zap.String("pattern", pattern), zap.Int("keys", n))
	}
}

func (r *Redis) Exists(ctx context.Context, key string) bool {
	n, ok := do(ctx, r, "exists", func() (int64, error) {
		return r.client.Exists(ctx, key).Result()
	})
	return ok && n > 0
}
