package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/settlement"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

// SettlementService implements the Connect SettlementService
type SettlementService struct {
	apiconnect.UnimplementedSettlementServiceHandler
	store   storage.Store
	tracker *settlement.Tracker
	policy  money.Policy
	logger  *slog.Logger
}

// NewSettlementService creates a new SettlementService backed by tracker.
func NewSettlementService(store storage.Store, tracker *settlement.Tracker, policy money.Policy, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, tracker: tracker, policy: policy, logger: logger}
}

// GetBalances returns what each user paid, owes and still has outstanding.
func (s *SettlementService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetBalances", err)
	}
	if _, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, fail(ctx, s.logger, "GetBalances", err, "trip_id", req.Msg.TripID)
	}

	balances, err := s.tracker.Balances(ctx, req.Msg.TripID)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetBalances", err, "trip_id", req.Msg.TripID)
	}
	return connect.NewResponse(&api.GetBalancesResponse{
		Currency: s.policy.Code,
		Balances: toAPIBalances(balances, s.policy),
	}), nil
}

// GetSettlement returns the transactions that settle the trip, outstanding
// first and already paid after.
func (s *SettlementService) GetSettlement(ctx context.Context, req *connect.Request[api.GetSettlementRequest]) (*connect.Response[api.GetSettlementResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetSettlement", err)
	}
	if _, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, fail(ctx, s.logger, "GetSettlement", err, "trip_id", req.Msg.TripID)
	}

	result, err := s.tracker.Settlement(ctx, req.Msg.TripID)
	if err != nil {
		return nil, fail(ctx, s.logger, "GetSettlement", err, "trip_id", req.Msg.TripID)
	}
	return connect.NewResponse(&api.GetSettlementResponse{
		TripID:       result.TripID,
		Version:      result.Version,
		Currency:     s.policy.Code,
		Balances:     toAPIBalances(result.Balances, s.policy),
		Transactions: toAPITransactions(result, s.policy),
	}), nil
}

// MarkTransactionPaid records that the caller paid an outstanding settlement
// transaction. Repeating the call returns the recorded payment.
func (s *SettlementService) MarkTransactionPaid(ctx context.Context, req *connect.Request[api.MarkTransactionPaidRequest]) (*connect.Response[api.MarkTransactionPaidResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	userID, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkTransactionPaid", err)
	}
	if _, err := loadTripForMember(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, fail(ctx, s.logger, "MarkTransactionPaid", err, "trip_id", req.Msg.TripID)
	}

	amount, err := s.policy.Parse(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	payment, created, err := s.tracker.MarkPaid(ctx, req.Msg.TripID, req.Msg.From, req.Msg.To, amount, userID)
	if err != nil {
		return nil, fail(ctx, s.logger, "MarkTransactionPaid", err, "trip_id", req.Msg.TripID)
	}

	return connect.NewResponse(&api.MarkTransactionPaidResponse{
		Payment:     toAPIPayment(payment, s.policy),
		AlreadyPaid: !created,
	}), nil
}
