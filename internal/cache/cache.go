// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the read-accelerator abstraction injected into the accounting
// service. It is best-effort and never a source of truth: any miss or stale
// read must be resolvable by recomputing from the ledger store.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
