package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobenna/bankcore/internal/domain"
)

func newTestCache(t *testing.T) (*BalanceCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewBalanceCache(client, time.Minute), mr
}

func TestBalanceCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	balance := domain.MustMoney("123.45", domain.CurrencyUSD)

	require.NoError(t, c.Set(ctx, "GB1001", balance))

	got, err := c.Get(ctx, "GB1001")
	require.NoError(t, err)
	assert.True(t, got.Equal(balance))
	assert.Equal(t, domain.CurrencyUSD, got.Currency())
}

func TestBalanceCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "GB9999")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestBalanceCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD)))
	require.NoError(t, c.Set(ctx, "GB1002", domain.MustMoney("20.00", domain.CurrencyUSD)))

	require.NoError(t, c.Invalidate(ctx, "GB1001", "GB1002"))

	_, err := c.Get(ctx, "GB1001")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "GB1002")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestBalanceCacheExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "GB1001", domain.MustMoney("10.00", domain.CurrencyUSD)))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "GB1001")
	assert.ErrorIs(t, err, ErrMiss)
}
