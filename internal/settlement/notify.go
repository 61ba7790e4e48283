package settlement

import (
	"context"
	"log/slog"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// LogNotifier reports recorded payments to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
	policy money.Policy
}

// NewLogNotifier creates a LogNotifier formatting amounts with policy.
func NewLogNotifier(logger *slog.Logger, policy money.Policy) *LogNotifier {
	return &LogNotifier{logger: logger, policy: policy}
}

func (n *LogNotifier) PaymentRecorded(ctx context.Context, trip *models.Trip, payment *models.Payment) {
	n.logger.InfoContext(ctx, "Payment recorded",
		"trip_id", trip.ID,
		"trip_title", trip.Title,
		"from", payment.From,
		"to", payment.To,
		"amount", n.policy.Format(payment.Amount),
		"currency", n.policy.Code,
		"trip_version", payment.TripVersion,
	)
}
