// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tripsplit/internal/models"
)

var (
	// ErrNotFound is returned when a trip, expense or detail does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a change is not allowed in the current state,
	// such as adding an expense to a completed trip.
	ErrConflict = errors.New("conflict")
)

// Store defines the interface for trip, expense and payment storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// UpsertUser inserts the user or refreshes its display name.
	UpsertUser(ctx context.Context, user *models.User) error

	// GetUsersByIDs returns the known users among ids, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// CreateTrip persists a new trip. ID, CreatedAt and Version are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip with its roster. Returns ErrNotFound if missing.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTripsByParticipant returns trips whose roster contains userID, newest first.
	ListTripsByParticipant(ctx context.Context, userID string, includeArchived bool) ([]*models.Trip, error)

	// AddTripParticipants appends users missing from the roster, keeping order.
	AddTripParticipants(ctx context.Context, tripID string, userIDs []string) error

	// RemoveTripParticipant removes a user from the roster. Returns ErrConflict
	// for the creator or for users referenced by an expense or payment.
	RemoveTripParticipant(ctx context.Context, tripID, userID string) error

	// CompleteTrip marks the trip complete.
	CompleteTrip(ctx context.Context, tripID string) error

	// ArchiveTrip marks the trip archived.
	ArchiveTrip(ctx context.Context, tripID string) error

	// CreateExpense persists an expense with its normalized details in one
	// transaction, appending the payer and participants missing from the
	// roster. Returns ErrConflict if the trip is complete.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its split and details.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByTrip retrieves all expenses of a trip with splits and details, oldest first.
	ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error)

	// MarkExpenseDetailPaid sets the paid flag of one detail line. Marking an
	// already paid line is a no-op.
	MarkExpenseDetailPaid(ctx context.Context, expenseID, participant string) (*models.ExpenseDetail, error)

	// CreatePayment records a settlement payment and bumps the trip version.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// ListPaymentsByTrip retrieves all payments of a trip, oldest first.
	ListPaymentsByTrip(ctx context.Context, tripID string) ([]*models.Payment, error)

	// GetLedger reads the trip, its expenses, payments and known users as one
	// consistent snapshot.
	GetLedger(ctx context.Context, tripID string) (*models.Ledger, error)

	// Close releases any resources held by the store.
	Close() error
}
