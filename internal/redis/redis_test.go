package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripsplit/internal/config"
	"github.com/mmynk/tripsplit/internal/models"
)

func TestCachedSettlementConversion(t *testing.T) {
	original := &models.Settlement{
		TripID:  "trip-1",
		Version: 4,
		Balances: []models.Balance{
			{UserID: "alice", DisplayName: "Alice", Paid: 9000, Owed: 3000, Net: 6000, Settled: -3000, Outstanding: 3000},
			{UserID: "bob", DisplayName: "Bob", Owed: 3000, Net: -3000, Settled: 3000},
		},
		Transactions: []models.SettlementTransaction{
			{From: "carol", To: "alice", Amount: 3000},
			{From: "bob", To: "alice", Amount: 3000, Paid: true, PaidAt: 1700000000},
		},
	}

	got := fromModel(original).toModel()
	assert.Equal(t, original, got)
	assert.Equal(t, "cache:settlement:trip-1:4", settlementKey("trip-1", 4))
}

// newTestClient connects to REDIS_ADDR or skips the test.
func newTestClient(t *testing.T) *LockStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewLockStore(client, 5*time.Second)
}

func TestLockStore(t *testing.T) {
	locks := newTestClient(t)
	ctx := context.Background()
	key := "test:" + uuid.New().String()

	unlock, err := locks.Lock(ctx, key)
	require.NoError(t, err)

	_, ok, err := locks.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "lock should be held")

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locks.Lock(waitCtx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A stale token must not release someone else's lock
	require.NoError(t, locks.Unlock(ctx, key, "not-the-owner"))
	_, ok, err = locks.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	unlock()

	token, ok, err := locks.TryLock(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, locks.Unlock(ctx, key, token))
}

func TestSettlementCache(t *testing.T) {
	locks := newTestClient(t)
	cache := NewSettlementCache(locks.client, time.Minute)
	ctx := context.Background()
	tripID := uuid.New().String()

	miss, err := cache.GetSettlement(ctx, tripID, 1)
	require.NoError(t, err)
	assert.Nil(t, miss)

	s := &models.Settlement{
		TripID:       tripID,
		Version:      1,
		Balances:     []models.Balance{{UserID: "alice", DisplayName: "Alice"}},
		Transactions: []models.SettlementTransaction{},
	}
	require.NoError(t, cache.SetSettlement(ctx, s))

	hit, err := cache.GetSettlement(ctx, tripID, 1)
	require.NoError(t, err)
	assert.Equal(t, s, hit)

	other, err := cache.GetSettlement(ctx, tripID, 2)
	require.NoError(t, err)
	assert.Nil(t, other)
}
