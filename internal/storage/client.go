package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const maxTries = 3

// Client wraps a Storage backend with bounded exponential retry. Not-found and
// access-denied failures are returned on the first attempt.
type Client struct {
	backend Storage
	base    time.Duration
	log     *zap.Logger
	now     func() time.Time
}

var _ ObjectStore = (*Client)(nil)

// NewClient returns a retrying ObjectStore over backend. base is the first
// wait between attempts; later waits double it.
func NewClient(backend Storage, base time.Duration, log *zap.Logger) *Client {
	if base <= 0 {
		base = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{backend: backend, base: base, log: log, now: time.Now}
}

// ObjectKey builds the key an upload is stored under. The file name is used
// as given.
func ObjectKey(ownerID int64, at time.Time, fileName string) string {
	return fmt.Sprintf("users/%d/%d-%s", ownerID, at.UnixMilli(), fileName)
}

func retry[T any](ctx context.Context, c *Client, op, key string, fn func() (T, error)) (T, error) {
	res, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && IsTerminal(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     c.base,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         c.base << maxTries,
		}),
		backoff.WithMaxTries(maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.log.Warn("storage_retry",
				zap.String("op", op),
				zap.String("key", key),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		c.log.Error("storage_operation_failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return res, fmt.Errorf("storage %s %q: %w", op, key, err)
	}
	return res, nil
}

// Upload stores r under a key derived from the owner, the current time and
// the original file name. r is rewound before every attempt.
func (c *Client) Upload(ctx context.Context, r io.ReadSeeker, in UploadInput) (UploadResult, error) {
	key := ObjectKey(in.OwnerID, c.now(), in.FileName)

	_, err := retry(ctx, c, "upload", key, func() (ObjectInfo, error) {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return ObjectInfo{}, backoff.Permanent(fmt.Errorf("rewind payload: %w", err))
		}
		return c.backend.Put(ctx, key, r, PutObjectOptions{
			Size:        in.Size,
			ContentType: in.ContentType,
		})
	})
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{Key: key, Locator: c.backend.LocatorFor(key)}, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := retry(ctx, c, "delete", key, func() (struct{}, error) {
		return struct{}{}, c.backend.Delete(ctx, key)
	})
	return err
}

// SignDownloadURL presigns a GET for key. Existence is not checked.
func (c *Client) SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return retry(ctx, c, "presign", key, func() (string, error) {
		return c.backend.PresignGet(ctx, key, ttl)
	})
}
