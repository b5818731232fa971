package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const leasePrefix = keyPrefix + "lease:"

// releaseLeaseScript deletes the lease only if the caller still owns it, so
// a run that outlived its TTL cannot drop a lease taken by the next run.
var releaseLeaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// AcquireLease takes the named lease for ttl if nobody holds it.
// Returns false if the lease is held by someone else.
func (c *Cache) AcquireLease(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, leaseKey(name), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	return ok, nil
}

// ReleaseLease drops the named lease if token still owns it.
func (c *Cache) ReleaseLease(ctx context.Context, name, token string) error {
	if err := releaseLeaseScript.Run(ctx, c.client, []string{leaseKey(name)}, token).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", name, err)
	}
	return nil
}

func leaseKey(name string) string {
	return leasePrefix + name
}
