// Package settlement turns a trip ledger into a settlement view and records
// payments against it.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

var (
	// ErrForbidden is returned when someone other than the debtor marks a transaction paid.
	ErrForbidden = errors.New("only the debtor can mark a transaction paid")

	// ErrTransactionNotFound is returned when no outstanding or paid
	// transaction matches the request.
	ErrTransactionNotFound = errors.New("settlement transaction not found")
)

// Store is the subset of storage.Store the tracker reads and writes.
type Store interface {
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	GetLedger(ctx context.Context, tripID string) (*models.Ledger, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
}

// Locker serializes work per key. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Cache stores computed settlements keyed by trip and version.
// Get returns nil, nil on a miss. Display names in a cached settlement may be
// stale, since renaming a user does not bump the trip version.
type Cache interface {
	GetSettlement(ctx context.Context, tripID string, version int64) (*models.Settlement, error)
	SetSettlement(ctx context.Context, s *models.Settlement) error
}

// Notifier is told about every newly recorded payment.
type Notifier interface {
	PaymentRecorded(ctx context.Context, trip *models.Trip, payment *models.Payment)
}

// Tracker computes settlements and records payments.
type Tracker struct {
	store    Store
	locker   Locker
	cache    Cache
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLocker replaces the default in-process locker.
func WithLocker(l Locker) Option {
	return func(t *Tracker) { t.locker = l }
}

// WithCache enables caching of computed settlements.
func WithCache(c Cache) Option {
	return func(t *Tracker) { t.cache = c }
}

// WithNotifier replaces the default logging notifier.
func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithMetrics records settlement and payment counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithLogger sets the logger used for cache and notification warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// NewTracker creates a Tracker over store.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		locker: NewLocalLocker(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.notifier == nil {
		t.notifier = NewLogNotifier(t.logger, money.DefaultPolicy)
	}
	return t
}

// Settlement returns the settlement view of a trip at its current version.
// Concurrent requests for the same version share one computation.
func (t *Tracker) Settlement(ctx context.Context, tripID string) (*models.Settlement, error) {
	trip, err := t.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%d", trip.ID, trip.Version)
	v, err, _ := t.group.Do(key, func() (any, error) {
		// Detach from the first caller so its cancellation does not fail the others.
		ctx := context.WithoutCancel(ctx)

		if cached := t.cached(ctx, trip.ID, trip.Version); cached != nil {
			s := clone(cached)
			users, err := t.store.GetUsersByIDs(ctx, balanceIDs(s.Balances))
			if err != nil {
				return nil, err
			}
			applyDisplayNames(s.Balances, users)
			t.metrics.SettlementServed("cache")
			return s, nil
		}

		ledger, err := t.store.GetLedger(ctx, tripID)
		if err != nil {
			return nil, err
		}
		s, err := Compute(ledger)
		if err != nil {
			return nil, err
		}
		t.metrics.SettlementServed("computed")

		if t.cache != nil {
			if err := t.cache.SetSettlement(ctx, s); err != nil {
				t.logger.Warn("Failed to cache settlement", "trip_id", s.TripID, "version", s.Version, "error", err)
			}
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	return clone(v.(*models.Settlement)), nil
}

// Balances returns the per-user balances of a trip.
func (t *Tracker) Balances(ctx context.Context, tripID string) ([]models.Balance, error) {
	s, err := t.Settlement(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.Balances, nil
}

// MarkPaid records that from paid to the given amount. Only from may do so.
//
// The settlement is recomputed under the trip lock. An outstanding match is
// recorded as a new payment and reported with created = true. A request that
// matches an already recorded payment succeeds with created = false and no
// side effects.
func (t *Tracker) MarkPaid(ctx context.Context, tripID, from, to string, amount money.Money, actorID string) (*models.Payment, bool, error) {
	if _, err := t.store.GetTrip(ctx, tripID); err != nil {
		return nil, false, err
	}
	if actorID != from {
		return nil, false, ErrForbidden
	}
	if amount <= 0 {
		return nil, false, fmt.Errorf("%w: payment must be positive", money.ErrInvalidAmount)
	}

	start := time.Now()
	unlock, err := t.locker.Lock(ctx, "trip:"+tripID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock trip %s: %w", tripID, err)
	}
	defer unlock()
	t.metrics.LockWaited(time.Since(start))

	ledger, err := t.store.GetLedger(ctx, tripID)
	if err != nil {
		return nil, false, err
	}
	current, err := Compute(ledger)
	if err != nil {
		return nil, false, err
	}

	for _, tx := range current.Transactions {
		if tx.Paid || tx.From != from || tx.To != to || tx.Amount != amount {
			continue
		}

		payment := &models.Payment{
			TripID:    tripID,
			From:      from,
			To:        to,
			Amount:    amount,
			CreatedBy: actorID,
		}
		if err := t.store.CreatePayment(ctx, payment); err != nil {
			return nil, false, fmt.Errorf("failed to record payment: %w", err)
		}
		t.metrics.PaymentRecorded()
		t.notifier.PaymentRecorded(ctx, ledger.Trip, payment)
		return payment, true, nil
	}

	for _, p := range ledger.Payments {
		if p.From == from && p.To == to && p.Amount == amount {
			return p, false, nil
		}
	}

	return nil, false, ErrTransactionNotFound
}

func (t *Tracker) cached(ctx context.Context, tripID string, version int64) *models.Settlement {
	if t.cache == nil {
		return nil
	}
	s, err := t.cache.GetSettlement(ctx, tripID, version)
	if err != nil {
		t.logger.Warn("Settlement cache read failed", "trip_id", tripID, "version", version, "error", err)
		return nil
	}
	return s
}

// Compute derives the settlement view from a ledger snapshot.
//
// Recorded payments are applied to the balances before simplification, so the
// outstanding transactions cover only what is still owed. Every recorded
// payment is listed as a paid transaction after the outstanding ones.
func Compute(ledger *models.Ledger) (*models.Settlement, error) {
	balances, err := calculator.ComputeBalances(ledger.Trip.Participants, ledger.Expenses)
	if err != nil {
		return nil, err
	}
	balances = calculator.ApplyPayments(balances, ledger.Payments)

	applyDisplayNames(balances, ledger.Users)

	transactions, err := calculator.ComputeSettlement(balances)
	if err != nil {
		return nil, err
	}
	for _, p := range ledger.Payments {
		transactions = append(transactions, models.SettlementTransaction{
			From:   p.From,
			To:     p.To,
			Amount: p.Amount,
			Paid:   true,
			PaidAt: p.CreatedAt,
		})
	}

	return &models.Settlement{
		TripID:       ledger.Trip.ID,
		Version:      ledger.Trip.Version,
		Balances:     balances,
		Transactions: transactions,
	}, nil
}

// applyDisplayNames names each balance after its user, falling back to the ID.
func applyDisplayNames(balances []models.Balance, users map[string]*models.User) {
	for i := range balances {
		balances[i].DisplayName = balances[i].UserID
		if u, ok := users[balances[i].UserID]; ok && u.DisplayName != "" {
			balances[i].DisplayName = u.DisplayName
		}
	}
}

func balanceIDs(balances []models.Balance) []string {
	ids := make([]string, len(balances))
	for i, b := range balances {
		ids[i] = b.UserID
	}
	return ids
}

func clone(s *models.Settlement) *models.Settlement {
	c := *s
	c.Balances = append([]models.Balance(nil), s.Balances...)
	c.Transactions = append([]models.SettlementTransaction(nil), s.Transactions...)
	return &c
}
