package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

const paymentColumns = "id, trip_id, from_user_id, to_user_id, amount, created_by, created_at, trip_version"

// CreatePayment records a settlement payment and bumps the trip version.
// TripVersion is set to the version the payment produced.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		version, err := bumpVersion(ctx, tx, payment.TripID)
		if err != nil {
			return err
		}
		payment.TripVersion = version

		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			payment.ID, payment.TripID, payment.From, payment.To, int64(payment.Amount),
			payment.CreatedBy, payment.CreatedAt, payment.TripVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	})
}

// ListPaymentsByTrip retrieves all payments of a trip, oldest first.
func (s *SQLiteStore) ListPaymentsByTrip(ctx context.Context, tripID string) ([]*models.Payment, error) {
	return listPayments(ctx, s.db, tripID)
}

func listPayments(ctx context.Context, q queryer, tripID string) ([]*models.Payment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE trip_id = ? ORDER BY trip_version, created_at",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments by trip: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		var amount int64
		if err := rows.Scan(&p.ID, &p.TripID, &p.From, &p.To, &amount,
			&p.CreatedBy, &p.CreatedAt, &p.TripVersion); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = money.Money(amount)
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
