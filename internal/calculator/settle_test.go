package calculator

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name     string
		balances []models.Balance
		want     []models.SettlementTransaction
		wantErr  error
	}{
		{
			name: "one creditor two debtors",
			balances: []models.Balance{
				{UserID: "A", Net: 6000},
				{UserID: "B", Net: -3000},
				{UserID: "C", Net: -3000},
			},
			want: []models.SettlementTransaction{
				{From: "B", To: "A", Amount: 3000},
				{From: "C", To: "A", Amount: 3000},
			},
		},
		{
			name: "largest debtor pays largest creditor first",
			balances: []models.Balance{
				{UserID: "A", Net: 1000},
				{UserID: "B", Net: 5000},
				{UserID: "C", Net: -4000},
				{UserID: "D", Net: -2000},
			},
			want: []models.SettlementTransaction{
				{From: "C", To: "B", Amount: 4000},
				{From: "D", To: "A", Amount: 1000},
				{From: "D", To: "B", Amount: 1000},
			},
		},
		{
			name: "settled users need no transaction",
			balances: []models.Balance{
				{UserID: "A", Net: 0},
				{UserID: "B", Net: 0},
			},
			want: nil,
		},
		{
			name: "recorded payments are taken into account",
			balances: []models.Balance{
				{UserID: "A", Net: 6000, Settled: -3000},
				{UserID: "B", Net: -3000, Settled: 3000},
				{UserID: "C", Net: -3000},
			},
			want: []models.SettlementTransaction{
				{From: "C", To: "A", Amount: 3000},
			},
		},
		{
			name: "unbalanced input leaves a residual",
			balances: []models.Balance{
				{UserID: "A", Net: 5000},
				{UserID: "B", Net: -3000},
			},
			wantErr: ErrSettlementResidual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSettlement(tt.balances)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeSettlement failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeSettlement() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSettlementPipeline_ThreeWayDinner(t *testing.T) {
	balances, err := ComputeBalances([]string{"A", "B", "C"}, []*models.Expense{
		equalExpense("dinner", 9000, "A", "A", "B", "C"),
	})
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}
	txns, err := ComputeSettlement(balances)
	if err != nil {
		t.Fatalf("ComputeSettlement failed: %v", err)
	}
	want := []models.SettlementTransaction{
		{From: "B", To: "A", Amount: 3000},
		{From: "C", To: "A", Amount: 3000},
	}
	if !reflect.DeepEqual(txns, want) {
		t.Errorf("settlement = %+v, want %+v", txns, want)
	}
}

// randomTrip builds a reproducible mix of equal and custom expenses.
func randomTrip(r *rand.Rand, users []string, count int) []*models.Expense {
	expenses := make([]*models.Expense, count)
	for i := range expenses {
		perm := r.Perm(len(users))
		n := 1 + r.Intn(len(users))
		participants := make([]string, n)
		for j := 0; j < n; j++ {
			participants[j] = users[perm[j]]
		}
		amount := money.Money(1 + r.Intn(50000))

		expense := &models.Expense{
			ID:           fmt.Sprintf("e%d", i),
			Amount:       amount,
			PaidBy:       users[r.Intn(len(users))],
			Participants: participants,
			Split:        models.EqualSplit{},
		}
		if r.Intn(2) == 0 {
			fee := money.Money(r.Intn(int(amount) + 1))
			items := (amount - fee).Split(n)
			split := models.CustomSplit{Fees: []models.AdditionalFee{{Label: "fee", Amount: fee}}}
			for j, p := range participants {
				split.Items = append(split.Items, models.SplitItem{Participant: p, Label: "item", Amount: items[j]})
			}
			expense.Split = split
		}
		expenses[i] = expense
	}
	return expenses
}

func TestSettlementProperties(t *testing.T) {
	users := []string{"ana", "ben", "cho", "dev", "eli", "fay"}
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		expenses := randomTrip(r, users, 1+r.Intn(12))

		balances, err := ComputeBalances(users, expenses)
		if err != nil {
			t.Fatalf("round %d: ComputeBalances failed: %v", round, err)
		}

		var sum money.Money
		for _, b := range balances {
			sum += b.Net
		}
		if sum != 0 {
			t.Fatalf("round %d: nets sum to %d", round, sum)
		}

		txns, err := ComputeSettlement(balances)
		if err != nil {
			t.Fatalf("round %d: ComputeSettlement failed: %v", round, err)
		}

		// applying every transaction drives every balance to zero
		net := make(map[string]money.Money)
		for _, b := range balances {
			net[b.UserID] = b.Net
		}
		for _, tx := range txns {
			if tx.Amount <= 0 {
				t.Fatalf("round %d: non-positive transaction %+v", round, tx)
			}
			net[tx.From] += tx.Amount
			net[tx.To] -= tx.Amount
		}
		for id, v := range net {
			if v != 0 {
				t.Fatalf("round %d: %s left with %d", round, id, v)
			}
		}

		if len(txns) >= len(users) {
			t.Errorf("round %d: %d transactions for %d users", round, len(txns), len(users))
		}

		// input order does not matter
		shuffled := make([]models.Balance, len(balances))
		copy(shuffled, balances)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again, err := ComputeSettlement(shuffled)
		if err != nil {
			t.Fatalf("round %d: ComputeSettlement on shuffled input failed: %v", round, err)
		}
		if !reflect.DeepEqual(txns, again) {
			t.Fatalf("round %d: settlement depends on input order:\n%+v\n%+v", round, txns, again)
		}
	}
}
