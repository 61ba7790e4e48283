package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

const settlementCachePrefix = "cache:settlement:"

// SettlementCache stores computed settlements keyed by trip and version.
// Entries never go stale since the version changes with every write; the
// TTL only bounds memory.
type SettlementCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSettlementCache creates a new SettlementCache.
func NewSettlementCache(client *redis.Client, ttl time.Duration) *SettlementCache {
	return &SettlementCache{client: client, ttl: ttl}
}

// CachedSettlement is the JSON form of a settlement in Redis.
type CachedSettlement struct {
	TripID       string              `json:"trip_id"`
	Version      int64               `json:"version"`
	Balances     []CachedBalance     `json:"balances"`
	Transactions []CachedTransaction `json:"transactions"`
}

// CachedBalance is one balance of a CachedSettlement. Amounts are minor units.
type CachedBalance struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Paid        int64  `json:"paid"`
	Owed        int64  `json:"owed"`
	Net         int64  `json:"net"`
	Settled     int64  `json:"settled"`
	Outstanding int64  `json:"outstanding"`
}

// CachedTransaction is one transaction of a CachedSettlement.
type CachedTransaction struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
	Paid   bool   `json:"paid"`
	PaidAt int64  `json:"paid_at,omitempty"`
}

func settlementKey(tripID string, version int64) string {
	return fmt.Sprintf("%s%s:%d", settlementCachePrefix, tripID, version)
}

// GetSettlement retrieves a settlement from cache. Returns nil, nil on a miss.
func (s *SettlementCache) GetSettlement(ctx context.Context, tripID string, version int64) (*models.Settlement, error) {
	data, err := s.client.Get(ctx, settlementKey(tripID, version)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedSettlement
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.toModel(), nil
}

// SetSettlement stores a settlement in cache.
func (s *SettlementCache) SetSettlement(ctx context.Context, settlement *models.Settlement) error {
	data, err := json.Marshal(fromModel(settlement))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, settlementKey(settlement.TripID, settlement.Version), data, s.ttl).Err()
}

func fromModel(s *models.Settlement) CachedSettlement {
	cached := CachedSettlement{
		TripID:       s.TripID,
		Version:      s.Version,
		Balances:     make([]CachedBalance, len(s.Balances)),
		Transactions: make([]CachedTransaction, len(s.Transactions)),
	}
	for i, b := range s.Balances {
		cached.Balances[i] = CachedBalance{
			UserID:      b.UserID,
			DisplayName: b.DisplayName,
			Paid:        int64(b.Paid),
			Owed:        int64(b.Owed),
			Net:         int64(b.Net),
			Settled:     int64(b.Settled),
			Outstanding: int64(b.Outstanding),
		}
	}
	for i, tx := range s.Transactions {
		cached.Transactions[i] = CachedTransaction{
			From:   tx.From,
			To:     tx.To,
			Amount: int64(tx.Amount),
			Paid:   tx.Paid,
			PaidAt: tx.PaidAt,
		}
	}
	return cached
}

func (c CachedSettlement) toModel() *models.Settlement {
	s := &models.Settlement{
		TripID:       c.TripID,
		Version:      c.Version,
		Balances:     make([]models.Balance, len(c.Balances)),
		Transactions: make([]models.SettlementTransaction, len(c.Transactions)),
	}
	for i, b := range c.Balances {
		s.Balances[i] = models.Balance{
			UserID:      b.UserID,
			DisplayName: b.DisplayName,
			Paid:        money.Money(b.Paid),
			Owed:        money.Money(b.Owed),
			Net:         money.Money(b.Net),
			Settled:     money.Money(b.Settled),
			Outstanding: money.Money(b.Outstanding),
		}
	}
	for i, tx := range c.Transactions {
		s.Transactions[i] = models.SettlementTransaction{
			From:   tx.From,
			To:     tx.To,
			Amount: money.Money(tx.Amount),
			Paid:   tx.Paid,
			PaidAt: tx.PaidAt,
		}
	}
	return s
}
