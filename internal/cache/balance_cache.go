package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "balance:ton:"

// BalanceCache keeps recent nanoton balances per wallet. A nil client disables
// it: reads always miss and writes are dropped.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBalanceCache creates a new BalanceCache instance.
func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

// Enabled reports whether a redis client is configured.
func (c *BalanceCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached balance for wallet and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, wallet string) (string, bool, error) {
	if !c.Enabled() {
		return "", false, nil
	}
	val, err := c.client.Get(ctx, balanceKey(wallet)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached balance: %w", err)
	}
	return val, true, nil
}

// Set stores the balance for wallet until the TTL expires.
func (c *BalanceCache) Set(ctx context.Context, wallet, nanoton string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, balanceKey(wallet), nanoton, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	return nil
}

func balanceKey(wallet string) string {
	return balanceKeyPrefix + wallet
}
