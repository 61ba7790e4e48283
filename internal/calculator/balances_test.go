package calculator

import (
	"errors"
	"math"
	"testing"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

func equalExpense(id string, amount money.Money, payer string, participants ...string) *models.Expense {
	return &models.Expense{
		ID:           id,
		Name:         id,
		Amount:       amount,
		PaidBy:       payer,
		Participants: participants,
		Split:        models.EqualSplit{},
	}
}

func balanceOf(t *testing.T, balances []models.Balance, userID string) models.Balance {
	t.Helper()
	for _, b := range balances {
		if b.UserID == userID {
			return b
		}
	}
	t.Fatalf("no balance for %s", userID)
	return models.Balance{}
}

func TestComputeBalances(t *testing.T) {
	t.Run("single equal expense", func(t *testing.T) {
		balances, err := ComputeBalances([]string{"A", "B", "C"}, []*models.Expense{
			equalExpense("dinner", 9000, "A", "A", "B", "C"),
		})
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}

		want := map[string]struct{ paid, owed, net money.Money }{
			"A": {9000, 3000, 6000},
			"B": {0, 3000, -3000},
			"C": {0, 3000, -3000},
		}
		for id, w := range want {
			b := balanceOf(t, balances, id)
			if b.Paid != w.paid || b.Owed != w.owed || b.Net != w.net {
				t.Errorf("%s = paid %d owed %d net %d, want %d %d %d", id, b.Paid, b.Owed, b.Net, w.paid, w.owed, w.net)
			}
			if b.Outstanding != b.Net {
				t.Errorf("%s outstanding = %d, want net %d", id, b.Outstanding, b.Net)
			}
		}
	})

	t.Run("idle roster member appears with zeros", func(t *testing.T) {
		balances, err := ComputeBalances([]string{"A", "B", "D"}, []*models.Expense{
			equalExpense("coffee", 1000, "A", "A", "B"),
		})
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		d := balanceOf(t, balances, "D")
		if d.Paid != 0 || d.Owed != 0 || d.Net != 0 {
			t.Errorf("D = %+v, want zeros", d)
		}
	})

	t.Run("roster order then outsiders by id", func(t *testing.T) {
		balances, err := ComputeBalances([]string{"C", "A"}, []*models.Expense{
			equalExpense("boat", 4000, "Z", "C", "A", "Y", "B"),
		})
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		var order []string
		for _, b := range balances {
			order = append(order, b.UserID)
		}
		want := []string{"C", "A", "B", "Y", "Z"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	})

	t.Run("stored details are used as is", func(t *testing.T) {
		expense := equalExpense("hotel", 1000, "A", "A", "B")
		expense.Details = []models.ExpenseDetail{
			{Participant: "A", Owed: 100},
			{Participant: "B", Owed: 900},
		}
		balances, err := ComputeBalances(nil, []*models.Expense{expense})
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		if b := balanceOf(t, balances, "B"); b.Owed != 900 {
			t.Errorf("B owed = %d, want 900", b.Owed)
		}
	})

	t.Run("corrupted details violate the invariant", func(t *testing.T) {
		expense := equalExpense("hotel", 1000, "A", "A", "B")
		expense.Details = []models.ExpenseDetail{
			{Participant: "A", Owed: 500},
			{Participant: "B", Owed: 400},
		}
		_, err := ComputeBalances(nil, []*models.Expense{expense})
		if !errors.Is(err, ErrAggregationInvariant) {
			t.Errorf("error = %v, want ErrAggregationInvariant", err)
		}
	})

	t.Run("overflowing totals are rejected", func(t *testing.T) {
		big := func(id string) *models.Expense {
			expense := equalExpense(id, 1, "A", "A", "B")
			expense.Amount = math.MaxInt64 - 1
			expense.Details = []models.ExpenseDetail{
				{Participant: "A", Owed: (math.MaxInt64 - 1) / 2},
				{Participant: "B", Owed: (math.MaxInt64 - 1) / 2},
			}
			return expense
		}
		_, err := ComputeBalances(nil, []*models.Expense{big("one"), big("two")})
		if !errors.Is(err, ErrAggregationInvariant) {
			t.Errorf("error = %v, want ErrAggregationInvariant", err)
		}
	})

	t.Run("invalid expense without details", func(t *testing.T) {
		_, err := ComputeBalances(nil, []*models.Expense{equalExpense("bad", 0, "A", "A")})
		if !errors.Is(err, ErrInvalidExpense) {
			t.Errorf("error = %v, want ErrInvalidExpense", err)
		}
	})
}

func TestApplyPayments(t *testing.T) {
	balances, err := ComputeBalances([]string{"A", "B", "C"}, []*models.Expense{
		equalExpense("dinner", 9000, "A", "A", "B", "C"),
	})
	if err != nil {
		t.Fatalf("ComputeBalances failed: %v", err)
	}

	applied := ApplyPayments(balances, []*models.Payment{
		{From: "B", To: "A", Amount: 3000},
	})

	if b := balanceOf(t, applied, "B"); b.Settled != 3000 || b.Outstanding != 0 {
		t.Errorf("B = settled %d outstanding %d, want 3000 0", b.Settled, b.Outstanding)
	}
	if a := balanceOf(t, applied, "A"); a.Settled != -3000 || a.Outstanding != 3000 || a.Net != 6000 {
		t.Errorf("A = %+v, want settled -3000 outstanding 3000 net 6000", a)
	}
	if c := balanceOf(t, applied, "C"); c.Outstanding != -3000 {
		t.Errorf("C outstanding = %d, want -3000", c.Outstanding)
	}

	// input is left untouched
	if b := balanceOf(t, balances, "B"); b.Settled != 0 {
		t.Errorf("ApplyPayments mutated its input: %+v", b)
	}
}
