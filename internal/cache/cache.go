// Package cache keeps a short-lived copy of account balances in Redis so
// balance reads do not have to hit the store. The store stays authoritative:
// every mutation invalidates the cached entry, and a cache failure only costs
// a store round trip, never correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tobenna/bankcore/internal/domain"
)

// NewRedisClient configures a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// ErrMiss reports that the key was absent.
var ErrMiss = errors.New("cache miss")

type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func balanceKey(accountNumber string) string {
	return "balance:" + accountNumber
}

func (c *BalanceCache) Get(ctx context.Context, accountNumber string) (domain.Money, error) {
	raw, err := c.client.Get(ctx, balanceKey(accountNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Money{}, ErrMiss
	}
	if err != nil {
		return domain.Money{}, fmt.Errorf("Get: %w", err)
	}

	var m domain.Money
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.Money{}, fmt.Errorf("Get: %w", err)
	}
	return m, nil
}

func (c *BalanceCache) Set(ctx context.Context, accountNumber string, balance domain.Money) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	if err := c.client.Set(ctx, balanceKey(accountNumber), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (c *BalanceCache) Invalidate(ctx context.Context, accountNumbers ...string) error {
	keys := make([]string, len(accountNumbers))
	for i, number := range accountNumbers {
		keys[i] = balanceKey(number)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("Invalidate: %w", err)
	}
	return nil
}
