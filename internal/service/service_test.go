package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/auth"
	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/settlement"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

// testEnv is a running server with all three services behind RequireAuth.
type testEnv struct {
	trips       apiconnect.TripServiceClient
	expenses    apiconnect.ExpenseServiceClient
	settlements apiconnect.SettlementServiceClient
	store       storage.Store
	tokens      map[string]string
}

var testUsers = map[string]string{
	"alice": "Alice",
	"bob":   "Bob",
	"carol": "Carol",
	"dave":  "Dave",
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := money.DefaultPolicy
	jwtManager := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	tracker := settlement.NewTracker(store,
		settlement.WithLogger(logger),
		settlement.WithNotifier(settlement.NewLogNotifier(logger, policy)),
	)

	interceptors := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	tripPath, tripHandler := apiconnect.NewTripServiceHandler(NewTripService(store, logger), interceptors)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store, policy, logger), interceptors)
	settlementPath, settlementHandler := apiconnect.NewSettlementServiceHandler(NewSettlementService(store, tracker, policy, logger), interceptors)

	mux := http.NewServeMux()
	mux.Handle(tripPath, tripHandler)
	mux.Handle(expensePath, expenseHandler)
	mux.Handle(settlementPath, settlementHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	tokens := make(map[string]string, len(testUsers))
	for id, name := range testUsers {
		token, err := jwtManager.Generate(id, name)
		if err != nil {
			t.Fatalf("failed to generate token for %s: %v", id, err)
		}
		tokens[id] = token
	}

	return &testEnv{
		trips:       apiconnect.NewTripServiceClient(http.DefaultClient, server.URL),
		expenses:    apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		settlements: apiconnect.NewSettlementServiceClient(http.DefaultClient, server.URL),
		store:       store,
		tokens:      tokens,
	}
}

// as builds a request authenticated as userID.
func as[T any](env *testEnv, userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+env.tokens[userID])
	return req
}

// createTrip creates a trip owned by alice with the given extra participants.
func createTrip(t *testing.T, env *testEnv, participants ...string) *api.Trip {
	t.Helper()
	ctx := context.Background()

	resp, err := env.trips.CreateTrip(ctx, as(env, "alice", &api.CreateTripRequest{
		Title:       "Lisbon",
		Destination: "Portugal",
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	trip := resp.Msg.Trip
	for _, p := range participants {
		added, err := env.trips.AddParticipant(ctx, as(env, "alice", &api.AddParticipantRequest{
			TripID:      trip.ID,
			UserID:      p,
			DisplayName: testUsers[p],
		}))
		if err != nil {
			t.Fatalf("AddParticipant(%s) failed: %v", p, err)
		}
		trip = added.Msg.Trip
	}
	return trip
}

// addDinner records alice paying 90.00 split equally with bob and carol.
func addDinner(t *testing.T, env *testEnv, tripID string) *api.Expense {
	t.Helper()
	resp, err := env.expenses.AddExpense(context.Background(), as(env, "alice", &api.AddExpenseRequest{
		TripID:       tripID,
		Name:         "Dinner",
		Amount:       "90.00",
		PaidBy:       "alice",
		Participants: []string{"alice", "bob", "carol"},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"invalid expense", fmt.Errorf("wrap: %w", calculator.ErrInvalidExpense), connect.CodeInvalidArgument},
		{"invalid amount", money.ErrInvalidAmount, connect.CodeInvalidArgument},
		{"forbidden", settlement.ErrForbidden, connect.CodePermissionDenied},
		{"not found", fmt.Errorf("trip x: %w", storage.ErrNotFound), connect.CodeNotFound},
		{"unknown transaction", settlement.ErrTransactionNotFound, connect.CodeNotFound},
		{"conflict", storage.ErrConflict, connect.CodeFailedPrecondition},
		{"aggregation", calculator.ErrAggregationInvariant, connect.CodeInternal},
		{"residual", calculator.ErrSettlementResidual, connect.CodeInternal},
		{"canceled", context.Canceled, connect.CodeCanceled},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), connect.CodeDeadlineExceeded},
		{"connect passthrough", connect.NewError(connect.CodeUnauthenticated, errors.New("no")), connect.CodeUnauthenticated},
		{"other", errors.New("disk full"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := connect.CodeOf(toConnectError(tt.err)); got != tt.want {
				t.Errorf("toConnectError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFindNewParticipants(t *testing.T) {
	got := findNewParticipants([]string{"bob", "dave", "alice", "dave", "erin"}, []string{"alice", "bob"})
	want := []string{"dave", "erin"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestUnauthenticated(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.trips.ListTrips(context.Background(), connect.NewRequest(&api.ListTripsRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	req := connect.NewRequest(&api.ListTripsRequest{})
	req.Header().Set("Authorization", "Bearer not-a-token")
	_, err = env.trips.ListTrips(context.Background(), req)
	assertCode(t, err, connect.CodeUnauthenticated)
}
