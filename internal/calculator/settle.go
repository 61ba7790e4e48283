package calculator

import (
	"fmt"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

// party is a debtor or creditor with the amount still to move, always positive.
type party struct {
	userID string
	amount money.Money
}

// ComputeSettlement produces debtor to creditor transactions that bring every
// outstanding balance (Net + Settled) to zero.
//
// Greedy matching: the largest remaining debtor pays the largest remaining
// creditor min(debt, credit), and whoever reaches zero drops out. Ties are
// broken by ascending user ID, so the result does not depend on input order.
// This is the usual practical approximation; the exact minimum number of
// transactions is NP-hard to find in general.
func ComputeSettlement(balances []models.Balance) ([]models.SettlementTransaction, error) {
	outstanding := make(map[string]money.Money, len(balances))
	for _, bal := range balances {
		outstanding[bal.UserID] += bal.Net + bal.Settled
	}

	var debtors, creditors []party
	for userID, amount := range outstanding {
		if amount < 0 {
			debtors = append(debtors, party{userID: userID, amount: -amount})
		} else if amount > 0 {
			creditors = append(creditors, party{userID: userID, amount: amount})
		}
	}

	var transactions []models.SettlementTransaction
	for len(debtors) > 0 && len(creditors) > 0 {
		d := largest(debtors)
		c := largest(creditors)

		amount := min(debtors[d].amount, creditors[c].amount)
		transactions = append(transactions, models.SettlementTransaction{
			From:   debtors[d].userID,
			To:     creditors[c].userID,
			Amount: amount,
		})

		debtors[d].amount -= amount
		creditors[c].amount -= amount

		if debtors[d].amount == 0 {
			debtors = remove(debtors, d)
		}
		if creditors[c].amount == 0 {
			creditors = remove(creditors, c)
		}
	}

	if len(debtors) > 0 || len(creditors) > 0 {
		var residual money.Money
		for _, p := range creditors {
			residual += p.amount
		}
		for _, p := range debtors {
			residual -= p.amount
		}
		return nil, fmt.Errorf("%w: %d minor units across %d users",
			ErrSettlementResidual, residual, len(debtors)+len(creditors))
	}

	return transactions, nil
}

// largest returns the index of the party with the biggest amount, preferring
// the smallest user ID on ties.
func largest(parties []party) int {
	best := 0
	for i := 1; i < len(parties); i++ {
		p, b := parties[i], parties[best]
		if p.amount > b.amount || (p.amount == b.amount && p.userID < b.userID) {
			best = i
		}
	}
	return best
}

func remove(parties []party, i int) []party {
	return append(parties[:i], parties[i+1:]...)
}
