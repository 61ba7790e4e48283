package service

import (
	"strings"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/pkg/api"
)

func displayName(users map[string]*models.User, userID string) string {
	if u, ok := users[userID]; ok && u.DisplayName != "" {
		return u.DisplayName
	}
	return userID
}

func toAPIUsers(ids []string, users map[string]*models.User) []*api.User {
	result := make([]*api.User, len(ids))
	for i, id := range ids {
		result[i] = &api.User{ID: id, DisplayName: displayName(users, id)}
	}
	return result
}

func toAPITrip(trip *models.Trip, users map[string]*models.User) *api.Trip {
	return &api.Trip{
		ID:           trip.ID,
		Title:        trip.Title,
		Destination:  trip.Destination,
		Description:  trip.Description,
		CreatedBy:    trip.CreatedBy,
		Participants: toAPIUsers(trip.Participants, users),
		IsComplete:   trip.IsComplete,
		IsArchived:   trip.IsArchived,
		CreatedAt:    trip.CreatedAt,
		Version:      trip.Version,
	}
}

func toAPIExpense(e *models.Expense, policy money.Policy, users map[string]*models.User, withDetails bool) *api.Expense {
	expense := &api.Expense{
		ID:           e.ID,
		TripID:       e.TripID,
		Name:         e.Name,
		Description:  e.Description,
		Amount:       policy.Format(e.Amount),
		PaidBy:       e.PaidBy,
		Participants: e.Participants,
		SplitType:    string(e.Split.Type()),
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}

	if custom, ok := e.Split.(models.CustomSplit); ok {
		for _, item := range custom.Items {
			expense.CustomSplits = append(expense.CustomSplits, &api.SplitItem{
				ParticipantID: item.Participant,
				Label:         item.Label,
				Amount:        policy.Format(item.Amount),
			})
		}
		for _, fee := range custom.Fees {
			expense.AdditionalFees = append(expense.AdditionalFees, &api.AdditionalFee{
				Label:  fee.Label,
				Amount: policy.Format(fee.Amount),
			})
		}
	}

	if withDetails {
		for i := range e.Details {
			expense.Details = append(expense.Details, toAPIDetail(&e.Details[i], policy, users))
		}
	}
	return expense
}

func toAPIDetail(d *models.ExpenseDetail, policy money.Policy, users map[string]*models.User) *api.ExpenseDetail {
	return &api.ExpenseDetail{
		ID:            d.ID,
		ParticipantID: d.Participant,
		DisplayName:   displayName(users, d.Participant),
		Owed:          policy.Format(d.Owed),
		Item:          d.Item,
		Paid:          d.Paid,
	}
}

func toAPIBalances(balances []models.Balance, policy money.Policy) []*api.Balance {
	result := make([]*api.Balance, len(balances))
	for i, b := range balances {
		result[i] = &api.Balance{
			UserID:      b.UserID,
			DisplayName: b.DisplayName,
			Paid:        policy.Format(b.Paid),
			Owed:        policy.Format(b.Owed),
			Net:         policy.Format(b.Net),
			Settled:     policy.Format(b.Settled),
			Outstanding: policy.Format(b.Outstanding),
		}
	}
	return result
}

func toAPITransactions(s *models.Settlement, policy money.Policy) []*api.Transaction {
	names := make(map[string]string, len(s.Balances))
	for _, b := range s.Balances {
		names[b.UserID] = b.DisplayName
	}
	name := func(id string) string {
		if n := names[id]; n != "" {
			return n
		}
		return id
	}

	result := make([]*api.Transaction, len(s.Transactions))
	for i, tx := range s.Transactions {
		result[i] = &api.Transaction{
			From:     tx.From,
			FromName: name(tx.From),
			To:       tx.To,
			ToName:   name(tx.To),
			Amount:   policy.Format(tx.Amount),
			Paid:     tx.Paid,
			PaidAt:   tx.PaidAt,
		}
	}
	return result
}

func toAPIPayment(p *models.Payment, policy money.Policy) *api.Payment {
	return &api.Payment{
		ID:          p.ID,
		TripID:      p.TripID,
		From:        p.From,
		To:          p.To,
		Amount:      policy.Format(p.Amount),
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		TripVersion: p.TripVersion,
	}
}

// parseSplit builds the split mode of an AddExpense request.
func parseSplit(req *api.AddExpenseRequest, policy money.Policy) (models.Split, error) {
	switch strings.ToLower(req.SplitType) {
	case "", string(models.SplitTypeEqual):
		if len(req.CustomSplits) > 0 || len(req.AdditionalFees) > 0 {
			return nil, errInvalidSplit("custom splits and fees require split_type custom")
		}
		return models.EqualSplit{}, nil
	}

	custom := models.CustomSplit{}
	for _, item := range req.CustomSplits {
		amount, err := policy.Parse(item.Amount)
		if err != nil {
			return nil, err
		}
		custom.Items = append(custom.Items, models.SplitItem{
			Participant: item.ParticipantID,
			Label:       item.Label,
			Amount:      amount,
		})
	}
	for _, fee := range req.AdditionalFees {
		amount, err := policy.Parse(fee.Amount)
		if err != nil {
			return nil, err
		}
		custom.Fees = append(custom.Fees, models.AdditionalFee{Label: fee.Label, Amount: amount})
	}
	return custom, nil
}
