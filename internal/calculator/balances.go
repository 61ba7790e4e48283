package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// ComputeBalances aggregates expenses into one Balance per user.
//
// Algorithm:
//   - For each expense: payer contributed +amount, each participant owes their detail
//   - net_balance = total_paid - total_owed
//   - Every roster user appears, even with no activity
//
// Expenses without details are normalized on the fly. Balances are returned in
// roster order followed by any other users in ascending ID order. The net
// balances must sum to zero; anything else is ErrAggregationInvariant.
func ComputeBalances(roster []string, expenses []*models.Expense) ([]models.Balance, error) {
	balances := make(map[string]*models.Balance)
	get := func(userID string) *models.Balance {
		bal, exists := balances[userID]
		if !exists {
			bal = &models.Balance{UserID: userID}
			balances[userID] = bal
		}
		return bal
	}

	for _, userID := range roster {
		get(userID)
	}

	for _, expense := range expenses {
		details := expense.Details
		if len(details) == 0 {
			var err error
			details, err = NormalizeExpense(expense)
			if err != nil {
				return nil, fmt.Errorf("failed to normalize expense %s: %w", expense.ID, err)
			}
		}

		// Payer paid the full amount
		payer := get(expense.PaidBy)
		var ok bool
		if payer.Paid, ok = payer.Paid.Add(expense.Amount); !ok {
			return nil, fmt.Errorf("%w: paid total of %s overflows", ErrAggregationInvariant, expense.PaidBy)
		}

		// Each participant owes their share
		for _, detail := range details {
			bal := get(detail.Participant)
			if bal.Owed, ok = bal.Owed.Add(detail.Owed); !ok {
				return nil, fmt.Errorf("%w: owed total of %s overflows", ErrAggregationInvariant, detail.Participant)
			}
		}
	}

	var sum money.Money
	for _, bal := range balances {
		var ok bool
		if bal.Net, ok = bal.Paid.Add(-bal.Owed); !ok {
			return nil, fmt.Errorf("%w: net balance of %s overflows", ErrAggregationInvariant, bal.UserID)
		}
		bal.Outstanding = bal.Net
		if sum, ok = sum.Add(bal.Net); !ok {
			return nil, fmt.Errorf("%w: net balances overflow", ErrAggregationInvariant)
		}
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: residual of %d minor units", ErrAggregationInvariant, sum)
	}

	return orderBalances(roster, balances), nil
}

// ApplyPayments accounts recorded payments against balances. A payment
// improves the sender's outstanding position and reduces the receiver's, the
// same way the payer of an expense is credited.
func ApplyPayments(balances []models.Balance, payments []*models.Payment) []models.Balance {
	result := make([]models.Balance, len(balances))
	copy(result, balances)

	index := make(map[string]int, len(result))
	for i, bal := range result {
		index[bal.UserID] = i
	}
	get := func(userID string) *models.Balance {
		i, exists := index[userID]
		if !exists {
			result = append(result, models.Balance{UserID: userID})
			i = len(result) - 1
			index[userID] = i
		}
		return &result[i]
	}

	for _, p := range payments {
		get(p.From).Settled += p.Amount
		get(p.To).Settled -= p.Amount
	}

	for i := range result {
		result[i].Outstanding = result[i].Net + result[i].Settled
	}
	return result
}

func orderBalances(roster []string, balances map[string]*models.Balance) []models.Balance {
	result := make([]models.Balance, 0, len(balances))
	inRoster := make(map[string]bool, len(roster))
	for _, userID := range roster {
		if inRoster[userID] {
			continue
		}
		inRoster[userID] = true
		result = append(result, *balances[userID])
	}

	var others []string
	for userID := range balances {
		if !inRoster[userID] {
			others = append(others, userID)
		}
	}
	sort.Strings(others)
	for _, userID := range others {
		result = append(result, *balances[userID])
	}
	return result
}
