package settlement

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
)

type recordingNotifier struct {
	mu       sync.Mutex
	payments []*models.Payment
}

func (n *recordingNotifier) PaymentRecorded(_ context.Context, _ *models.Trip, payment *models.Payment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payments = append(n.payments, payment)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.payments)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*models.Settlement
	hits    int
}

func (c *mapCache) GetSettlement(_ context.Context, tripID string, version int64) (*models.Settlement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[cacheKey(tripID, version)]
	if ok {
		c.hits++
	}
	return s, nil
}

func (c *mapCache) SetSettlement(_ context.Context, s *models.Settlement) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(s.TripID, s.Version)] = s
	return nil
}

func cacheKey(tripID string, version int64) string {
	return fmt.Sprintf("%s:%d", tripID, version)
}

func setupStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// setupDinner creates the trip where alice pays 90.00 for alice, bob and carol.
func setupDinner(t *testing.T, store *sqlite.SQLiteStore) *models.Trip {
	t.Helper()
	ctx := context.Background()

	for id, name := range map[string]string{"alice": "Alice", "bob": "Bob", "carol": "Carol"} {
		require.NoError(t, store.UpsertUser(ctx, models.NewUser(id, name)))
	}

	trip := &models.Trip{Title: "Dinner club", CreatedBy: "alice", Participants: []string{"bob", "carol"}}
	require.NoError(t, store.CreateTrip(ctx, trip))

	addExpense(t, store, trip.ID, "Dinner", 9000, "alice", "alice", "bob", "carol")
	return trip
}

func addExpense(t *testing.T, store *sqlite.SQLiteStore, tripID, name string, amount money.Money, payer string, participants ...string) {
	t.Helper()
	expense := &models.Expense{
		TripID:       tripID,
		Name:         name,
		Amount:       amount,
		PaidBy:       payer,
		Participants: participants,
		Split:        models.EqualSplit{},
		CreatedBy:    payer,
	}
	details, err := calculator.NormalizeExpense(expense)
	require.NoError(t, err)
	expense.Details = details
	require.NoError(t, store.CreateExpense(context.Background(), expense))
}

func outstanding(s *models.Settlement) []models.SettlementTransaction {
	var result []models.SettlementTransaction
	for _, tx := range s.Transactions {
		if !tx.Paid {
			result = append(result, tx)
		}
	}
	return result
}

func TestSettlement_ThreeWayDinner(t *testing.T) {
	store := setupStore(t)
	trip := setupDinner(t, store)
	tracker := NewTracker(store)

	s, err := tracker.Settlement(context.Background(), trip.ID)
	require.NoError(t, err)

	assert.Equal(t, trip.ID, s.TripID)
	assert.Equal(t, int64(2), s.Version)
	assert.Equal(t, []models.SettlementTransaction{
		{From: "bob", To: "alice", Amount: 3000},
		{From: "carol", To: "alice", Amount: 3000},
	}, s.Transactions)

	require.Len(t, s.Balances, 3)
	assert.Equal(t, "Alice", s.Balances[0].DisplayName)
	assert.Equal(t, money.Money(6000), s.Balances[0].Net)
	assert.Equal(t, money.Money(-3000), s.Balances[1].Outstanding)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("records payment once", func(t *testing.T) {
		store := setupStore(t)
		trip := setupDinner(t, store)
		notifier := &recordingNotifier{}
		tracker := NewTracker(store, WithNotifier(notifier))

		payment, created, err := tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 3000, "bob")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, money.Money(3000), payment.Amount)
		assert.Equal(t, int64(3), payment.TripVersion)

		again, created, err := tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 3000, "bob")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, payment.ID, again.ID)

		assert.Equal(t, 1, notifier.count())

		s, err := tracker.Settlement(ctx, trip.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.SettlementTransaction{{From: "carol", To: "alice", Amount: 3000}}, outstanding(s))
		last := s.Transactions[len(s.Transactions)-1]
		assert.True(t, last.Paid)
		assert.Equal(t, "bob", last.From)
		assert.NotZero(t, last.PaidAt)
	})

	t.Run("only the debtor may mark paid", func(t *testing.T) {
		store := setupStore(t)
		trip := setupDinner(t, store)
		notifier := &recordingNotifier{}
		tracker := NewTracker(store, WithNotifier(notifier))

		_, _, err := tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 3000, "alice")
		assert.True(t, errors.Is(err, ErrForbidden), "got %v", err)

		payments, err := store.ListPaymentsByTrip(ctx, trip.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)
		assert.Equal(t, 0, notifier.count())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		store := setupStore(t)
		trip := setupDinner(t, store)
		tracker := NewTracker(store)

		_, _, err := tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 2999, "bob")
		assert.True(t, errors.Is(err, ErrTransactionNotFound), "got %v", err)

		_, _, err = tracker.MarkPaid(ctx, trip.ID, "bob", "carol", 3000, "bob")
		assert.True(t, errors.Is(err, ErrTransactionNotFound), "got %v", err)
	})

	t.Run("unknown trip", func(t *testing.T) {
		store := setupStore(t)
		tracker := NewTracker(store)

		_, _, err := tracker.MarkPaid(ctx, "nonexistent-id", "bob", "alice", 3000, "bob")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("paid transaction survives a later expense", func(t *testing.T) {
		store := setupStore(t)
		trip := setupDinner(t, store)
		tracker := NewTracker(store)

		_, _, err := tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 3000, "bob")
		require.NoError(t, err)

		addExpense(t, store, trip.ID, "Taxi", 6000, "bob", "alice", "bob")

		s, err := tracker.Settlement(ctx, trip.ID)
		require.NoError(t, err)

		assert.Equal(t, []models.SettlementTransaction{{From: "carol", To: "bob", Amount: 3000}}, outstanding(s))

		var paid []models.SettlementTransaction
		for _, tx := range s.Transactions {
			if tx.Paid {
				paid = append(paid, tx)
			}
		}
		require.Len(t, paid, 1)
		assert.Equal(t, "bob", paid[0].From)
		assert.Equal(t, "alice", paid[0].To)
		assert.Equal(t, money.Money(3000), paid[0].Amount)
	})

	t.Run("concurrent calls record one payment", func(t *testing.T) {
		store := setupStore(t)
		trip := setupDinner(t, store)
		notifier := &recordingNotifier{}
		tracker := NewTracker(store, WithNotifier(notifier))

		const callers = 8
		var wg sync.WaitGroup
		results := make([]bool, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i], errs[i] = tracker.MarkPaid(ctx, trip.ID, "carol", "alice", 3000, "carol")
			}(i)
		}
		wg.Wait()

		created := 0
		for i := range results {
			require.NoError(t, errs[i])
			if results[i] {
				created++
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, 1, notifier.count())

		payments, err := store.ListPaymentsByTrip(ctx, trip.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})
}

func TestSettlement_UsesCachePerVersion(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	trip := setupDinner(t, store)
	cache := &mapCache{entries: make(map[string]*models.Settlement)}
	tracker := NewTracker(store, WithCache(cache))

	first, err := tracker.Settlement(ctx, trip.ID)
	require.NoError(t, err)
	second, err := tracker.Settlement(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)

	_, _, err = tracker.MarkPaid(ctx, trip.ID, "bob", "alice", 3000, "bob")
	require.NoError(t, err)

	third, err := tracker.Settlement(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), third.Version)
	assert.Equal(t, 1, cache.hits)
	assert.Len(t, outstanding(third), 1)
}

func TestSettlement_CacheHitUsesCurrentDisplayNames(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	trip := setupDinner(t, store)
	cache := &mapCache{entries: make(map[string]*models.Settlement)}
	tracker := NewTracker(store, WithCache(cache))

	first, err := tracker.Settlement(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, first.Balances, 3)
	assert.Equal(t, "Bob", first.Balances[1].DisplayName)

	require.NoError(t, store.UpsertUser(ctx, models.NewUser("bob", "Robert")))

	second, err := tracker.Settlement(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Version, second.Version)
	assert.Equal(t, "Robert", second.Balances[1].DisplayName)
	assert.Equal(t, "Alice", second.Balances[0].DisplayName)

	// The cached entry itself is left untouched
	cached, err := cache.GetSettlement(ctx, trip.ID, first.Version)
	require.NoError(t, err)
	assert.Equal(t, "Bob", cached.Balances[1].DisplayName)
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()

	unlock, err := locker.Lock(context.Background(), "trip:1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, "trip:1")
	assert.ErrorIs(t, err, context.Canceled)

	// Other keys are independent
	other, err := locker.Lock(context.Background(), "trip:2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), "trip:1")
	require.NoError(t, err)
	again()
	assert.Empty(t, locker.locks)
}
