package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const accessKeyPrefix = "billing:access:"

// StatusCache caches the access-allowed verdict per subscription in Redis so
// hot request-gating paths do not hit the subscription store on every call.
// Entries are short-lived and dropped on every subscription write; a cache
// failure is treated as a miss, never as an error, since the store remains
// the source of truth.
type StatusCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStatusCache creates a cache over the given Redis client. Panics if
// client is nil. A non-positive ttl falls back to one minute.
func NewStatusCache(client redis.UniversalClient, ttl time.Duration) *StatusCache {
	if client == nil {
		panic("billing: redis client is required")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatusCache{client: client, ttl: ttl}
}

// GetAccess returns the cached verdict and whether one was present.
func (c *StatusCache) GetAccess(ctx context.Context, subscriptionID uuid.UUID) (allowed, ok bool) {
	val, err := c.client.Get(ctx, accessKeyPrefix+subscriptionID.String()).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// SetAccess stores the verdict for the configured TTL. Failures are ignored.
func (c *StatusCache) SetAccess(ctx context.Context, subscriptionID uuid.UUID, allowed bool) {
	val := "0"
	if allowed {
		val = "1"
	}
	_ = c.client.Set(ctx, accessKeyPrefix+subscriptionID.String(), val, c.ttl).Err()
}

// Invalidate drops the cached verdict after a subscription write.
func (c *StatusCache) Invalidate(ctx context.Context, subscriptionID uuid.UUID) {
	_ = c.client.Del(ctx, accessKeyPrefix+subscriptionID.String()).Err()
}
