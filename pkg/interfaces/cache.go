package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by ResponseCache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: miss")

// ResponseCache stores raw remote response bodies keyed by request identity.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
