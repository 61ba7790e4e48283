// Package calculator implements the settlement engine: expense normalization,
// balance aggregation and debt simplification. Everything here is a pure
// function over its inputs.
package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
)

var (
	// ErrInvalidExpense is returned for expenses that cannot be normalized.
	// Nothing derived from such an expense may be persisted.
	ErrInvalidExpense = errors.New("invalid expense")

	// ErrAggregationInvariant means net balances do not sum to zero.
	// It indicates corrupted data or a normalization bug, never bad input.
	ErrAggregationInvariant = errors.New("net balances do not sum to zero")

	// ErrSettlementResidual means the optimizer could not clear every balance.
	ErrSettlementResidual = errors.New("settlement left a residual")
)

// NormalizeExpense computes one ExpenseDetail per participant, in participant
// order, whose Owed amounts sum exactly to the expense amount.
//
// Equal splits hand leftover minor units to the first participants in list
// order. Custom splits sum each participant's items and add an equal share of
// the fees; the items and fees together must match the amount exactly.
func NormalizeExpense(expense *models.Expense) ([]models.ExpenseDetail, error) {
	if err := validateExpense(expense); err != nil {
		return nil, err
	}

	n := len(expense.Participants)
	owed := make([]money.Money, n)
	labels := make([][]string, n)

	switch split := expense.Split.(type) {
	case models.EqualSplit:
		copy(owed, expense.Amount.Split(n))

	case models.CustomSplit:
		position := make(map[string]int, n)
		for i, p := range expense.Participants {
			position[p] = i
		}

		var total money.Money
		for _, item := range split.Items {
			i, ok := position[item.Participant]
			if !ok {
				return nil, fmt.Errorf("%w: custom split for %q who is not a participant", ErrInvalidExpense, item.Participant)
			}
			if item.Amount < 0 {
				return nil, fmt.Errorf("%w: custom split for %q is negative", ErrInvalidExpense, item.Participant)
			}
			if owed[i], ok = owed[i].Add(item.Amount); !ok {
				return nil, fmt.Errorf("%w: custom splits overflow", ErrInvalidExpense)
			}
			if total, ok = total.Add(item.Amount); !ok {
				return nil, fmt.Errorf("%w: custom splits overflow", ErrInvalidExpense)
			}
			if item.Label != "" {
				labels[i] = append(labels[i], item.Label)
			}
		}

		var fees money.Money
		for _, fee := range split.Fees {
			if fee.Amount < 0 {
				return nil, fmt.Errorf("%w: fee %q is negative", ErrInvalidExpense, fee.Label)
			}
			var ok bool
			if fees, ok = fees.Add(fee.Amount); !ok {
				return nil, fmt.Errorf("%w: fees overflow", ErrInvalidExpense)
			}
		}

		// Every term is non-negative, so matching the amount bounds each share
		grand, ok := total.Add(fees)
		if !ok || grand != expense.Amount {
			return nil, fmt.Errorf("%w: custom splits (%d) and fees (%d) do not add up to amount (%d)",
				ErrInvalidExpense, total, fees, expense.Amount)
		}

		for i, share := range fees.Split(n) {
			owed[i] += share
		}

	case nil:
		return nil, fmt.Errorf("%w: split mode required", ErrInvalidExpense)

	default:
		return nil, fmt.Errorf("%w: unsupported split %T", ErrInvalidExpense, split)
	}

	details := make([]models.ExpenseDetail, n)
	for i, p := range expense.Participants {
		item := expense.Name
		if len(labels[i]) > 0 {
			item = strings.Join(labels[i], ", ")
		}
		details[i] = models.ExpenseDetail{
			ExpenseID:   expense.ID,
			Participant: p,
			Owed:        owed[i],
			Item:        item,
		}
	}
	return details, nil
}

func validateExpense(expense *models.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: missing expense", ErrInvalidExpense)
	}
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	if expense.Amount > money.MaxAmount {
		return fmt.Errorf("%w: amount exceeds %d minor units", ErrInvalidExpense, money.MaxAmount)
	}
	if expense.PaidBy == "" {
		return fmt.Errorf("%w: payer required", ErrInvalidExpense)
	}
	if len(expense.Participants) == 0 {
		return fmt.Errorf("%w: must have at least one participant", ErrInvalidExpense)
	}

	seen := make(map[string]bool, len(expense.Participants))
	for _, p := range expense.Participants {
		if p == "" {
			return fmt.Errorf("%w: empty participant id", ErrInvalidExpense)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate participant %q", ErrInvalidExpense, p)
		}
		seen[p] = true
	}
	return nil
}
