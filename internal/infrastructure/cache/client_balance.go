package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexledger/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ErrBalanceNotCached is returned by Get when no balance is cached for the client
var ErrBalanceNotCached = errors.New("client balance not cached")

// RedisClientBalanceCache caches computed client balances in Redis. Financial
// mutations invalidate the entry; the TTL bounds staleness if an invalidation
// is ever lost.
type RedisClientBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClientBalanceCache creates a new RedisClientBalanceCache
func NewRedisClientBalanceCache(client *redis.Client, ttl time.Duration) *RedisClientBalanceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisClientBalanceCache{client: client, ttl: ttl}
}

// balanceKey builds the cache key for a client within a practice scope.
// Firm-held records and solo-practitioner records never share keys.
func balanceKey(scope shared.PracticeScope, customerID uuid.UUID) string {
	if scope.FirmID != nil {
		return fmt.Sprintf("balance:firm:%s:%s", scope.FirmID, customerID)
	}
	return fmt.Sprintf("balance:lawyer:%s:%s", scope.LawyerID, customerID)
}

// Get returns the cached balance for a client, or ErrBalanceNotCached
func (c *RedisClientBalanceCache) Get(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) (decimal.Decimal, error) {
	raw, err := c.client.Get(ctx, balanceKey(scope, customerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, ErrBalanceNotCached
		}
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt cached balance: %w", err)
	}
	return balance, nil
}

// Set stores the computed balance for a client
func (c *RedisClientBalanceCache) Set(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID, balance decimal.Decimal) error {
	return c.client.Set(ctx, balanceKey(scope, customerID), balance.String(), c.ttl).Err()
}

// Invalidate drops the cached balance so the next read recomputes it
func (c *RedisClientBalanceCache) Invalidate(ctx context.Context, scope shared.PracticeScope, customerID uuid.UUID) error {
	return c.client.Del(ctx, balanceKey(scope, customerID)).Err()
}
