package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

// ExpenseService implements the Connect ExpenseService
type ExpenseService struct {
	apiconnect.UnimplementedExpenseServiceHandler
	store  storage.Store
	policy money.Policy
	logger *slog.Logger
}

// NewExpenseService creates a new ExpenseService. Amounts are parsed and
// formatted with policy.
func NewExpenseService(store storage.Store, policy money.Policy, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, policy: policy, logger: logger}
}

// AddExpense records an expense on an open trip and returns it with its details.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "AddExpense", err)
	}

	s.logger.DebugContext(ctx, "AddExpense request received",
		"trip_id", req.Msg.TripID,
		"name", req.Msg.Name,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidBy,
		"participants", req.Msg.Participants,
		"split_type", req.Msg.SplitType,
	)

	trip, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "AddExpense", err, "trip_id", req.Msg.TripID)
	}
	if trip.IsComplete {
		return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("trip %s is complete", trip.ID))
	}

	amount, err := s.policy.Parse(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	split, err := parseSplit(req.Msg, s.policy)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	expense := &models.Expense{
		TripID:       trip.ID,
		Name:         req.Msg.Name,
		Description:  req.Msg.Description,
		Amount:       amount,
		PaidBy:       req.Msg.PaidBy,
		Participants: req.Msg.Participants,
		Split:        split,
		CreatedBy:    userID,
	}

	// Normalize before anything is written so a bad split persists nothing
	details, err := calculator.NormalizeExpense(expense)
	if err != nil {
		s.logger.WarnContext(ctx, "Rejected expense", "trip_id", trip.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	expense.Details = details

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fail(ctx, s.logger, "AddExpense", err, "trip_id", trip.ID)
	}
	s.logger.InfoContext(ctx, "Expense added",
		"trip_id", trip.ID,
		"expense_id", expense.ID,
		"amount", s.policy.Format(expense.Amount),
	)

	if joined := findNewParticipants(append([]string{expense.PaidBy}, expense.Participants...), trip.Participants); len(joined) > 0 {
		s.logger.InfoContext(ctx, "Auto-added participants to trip", "trip_id", trip.ID, "new_participants", joined)
	}

	users, err := s.store.GetUsersByIDs(ctx, expense.Participants)
	if err != nil {
		return nil, fail(ctx, s.logger, "AddExpense", err, "trip_id", trip.ID)
	}
	return connect.NewResponse(&api.AddExpenseResponse{
		Expense: toAPIExpense(expense, s.policy, users, true),
	}), nil
}

// ListExpenses returns the trip's expenses, oldest first, without details.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "ListExpenses", err)
	}
	if _, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, fail(ctx, s.logger, "ListExpenses", err, "trip_id", req.Msg.TripID)
	}

	expenses, err := s.store.ListExpensesByTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, fail(ctx, s.logger, "ListExpenses", err, "trip_id", req.Msg.TripID)
	}

	result := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		result[i] = toAPIExpense(e, s.policy, nil, false)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: result}), nil
}

// GetExpenseReport returns every expense of the trip with its per-participant
// details and display names.
func (s *ExpenseService) GetExpenseReport(ctx context.Context, req *connect.Request[api.GetExpenseReportRequest]) (*connect.Response[api.GetExpenseReportResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetExpenseReport", err)
	}
	trip, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetExpenseReport", err, "trip_id", req.Msg.TripID)
	}

	ledger, err := s.store.GetLedger(ctx, trip.ID)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetExpenseReport", err, "trip_id", trip.ID)
	}

	var total money.Money
	expenses := make([]*api.Expense, len(ledger.Expenses))
	for i, e := range ledger.Expenses {
		total += e.Amount
		expenses[i] = toAPIExpense(e, s.policy, ledger.Users, true)
	}

	return connect.NewResponse(&api.GetExpenseReportResponse{
		TripID:       trip.ID,
		Currency:     s.policy.Code,
		Total:        s.policy.Format(total),
		Participants: toAPIUsers(ledger.Trip.Participants, ledger.Users),
		Expenses:     expenses,
	}), nil
}

// MarkExpenseDetailPaid flags one participant's share of an expense as paid.
// The participant or the expense payer may do so.
func (s *ExpenseService) MarkExpenseDetailPaid(ctx context.Context, req *connect.Request[api.MarkExpenseDetailPaidRequest]) (*connect.Response[api.MarkExpenseDetailPaidResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkExpenseDetailPaid", err)
	}
	if _, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, fail(ctx, s.logger, "MarkExpenseDetailPaid", err, "trip_id", req.Msg.TripID)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkExpenseDetailPaid", err, "expense_id", req.Msg.ExpenseID)
	}
	if expense.TripID != req.Msg.TripID {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("expense %s not found in trip %s", expense.ID, req.Msg.TripID))
	}
	if userID != req.Msg.UserID && userID != expense.PaidBy {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only %s or the payer can mark this share paid", req.Msg.UserID))
	}

	detail, err := s.store.MarkExpenseDetailPaid(ctx, expense.ID, req.Msg.UserID)
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkExpenseDetailPaid", err, "expense_id", expense.ID)
	}
	s.logger.InfoContext(ctx, "Expense share marked paid", "expense_id", expense.ID, "participant", detail.Participant, "by", userID)

	users, err := s.store.GetUsersByIDs(ctx, []string{detail.Participant})
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkExpenseDetailPaid", err, "expense_id", expense.ID)
	}
	return connect.NewResponse(&api.MarkExpenseDetailPaidResponse{
		Detail: toAPIDetail(detail, s.policy, users),
	}), nil
}
