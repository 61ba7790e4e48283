// Package service implements the tripsplit Connect services on top of the
// store and the settlement tracker.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/settlement"
	"github.com/mmynk/tripsplit/internal/storage"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// validateRequest checks a request message against its struct tags.
func validateRequest(msg any) error {
	if err := validate.Struct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, calculator.ErrInvalidExpense), errors.Is(err, money.ErrInvalidAmount):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, settlement.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, settlement.ErrTransactionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// fail maps err and logs internal failures, which point at corrupted data or a bug.
func fail(ctx context.Context, logger *slog.Logger, op string, err error, attrs ...any) error {
	mapped := toConnectError(err)
	if connect.CodeOf(mapped) == connect.CodeInternal {
		logger.ErrorContext(ctx, op+" failed", append(attrs, "error", err)...)
	}
	return mapped
}

// currentUser returns the authenticated user ID and refreshes the user's
// display name from the token.
func currentUser(ctx context.Context, store storage.Store) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if err := store.UpsertUser(ctx, models.NewUser(userID, middleware.GetDisplayName(ctx))); err != nil {
		return "", fmt.Errorf("failed to record user: %w", err)
	}
	return userID, nil
}

// loadTripForMember returns the trip if userID is on its roster.
func loadTripForMember(ctx context.Context, store storage.Store, tripID, userID string) (*models.Trip, error) {
	trip, err := store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.HasParticipant(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you are not a participant of this trip"))
	}
	return trip, nil
}

// requireCreator rejects callers other than the trip creator.
func requireCreator(trip *models.Trip, userID string) error {
	if trip.CreatedBy != userID {
		return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the trip creator can do this"))
	}
	return nil
}

// findNewParticipants returns the users in people that are not on the roster, in order.
func findNewParticipants(people, roster []string) []string {
	seen := make(map[string]bool, len(roster)+len(people))
	for _, m := range roster {
		seen[m] = true
	}
	var newOnes []string
	for _, p := range people {
		if !seen[p] {
			seen[p] = true
			newOnes = append(newOnes, p)
		}
	}
	return newOnes
}

func errInvalidSplit(msg string) error {
	return fmt.Errorf("%w: %s", calculator.ErrInvalidExpense, msg)
}
