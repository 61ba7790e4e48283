package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tripsplit/internal/models"
)

// GetLedger reads a trip and everything its settlement depends on inside one
// transaction, so the trip version matches the expenses and payments returned.
func (s *SQLiteStore) GetLedger(ctx context.Context, tripID string) (*models.Ledger, error) {
	ledger := &models.Ledger{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		trip, err := getTrip(ctx, tx, tripID)
		if err != nil {
			return err
		}
		ledger.Trip = trip

		ledger.Expenses, err = loadExpenses(ctx, tx, "trip_id = ?", tripID)
		if err != nil {
			return err
		}

		ledger.Payments, err = listPayments(ctx, tx, tripID)
		if err != nil {
			return err
		}

		ledger.Users, err = getUsersByIDs(ctx, tx, ledgerUserIDs(ledger))
		if err != nil {
			return fmt.Errorf("failed to load ledger users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ledger, nil
}

// ledgerUserIDs collects every user referenced by the ledger, roster first.
func ledgerUserIDs(ledger *models.Ledger) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range ledger.Trip.Participants {
		add(id)
	}
	for _, e := range ledger.Expenses {
		add(e.PaidBy)
		for _, p := range e.Participants {
			add(p)
		}
	}
	for _, p := range ledger.Payments {
		add(p.From)
		add(p.To)
	}
	return ids
}
