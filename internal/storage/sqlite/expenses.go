package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/money"
	"github.com/mmynk/tripsplit/internal/storage"
)

const expenseColumns = "id, trip_id, name, description, amount, paid_by, split_type, created_by, created_at"

// CreateExpense persists an expense, its split and its normalized details in a
// single transaction and bumps the trip version. The payer and participants
// missing from the roster are appended to it in the same transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.Split == nil {
		return fmt.Errorf("expense has no split")
	}
	if len(expense.Details) != len(expense.Participants) {
		return fmt.Errorf("expense has %d details for %d participants", len(expense.Details), len(expense.Participants))
	}

	// Generate ID if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		trip, err := getTrip(ctx, tx, expense.TripID)
		if err != nil {
			return err
		}
		if trip.IsComplete {
			return fmt.Errorf("trip %s is complete: %w", expense.TripID, storage.ErrConflict)
		}

		people := append([]string{expense.PaidBy}, expense.Participants...)
		if _, err := appendParticipants(ctx, tx, trip, people); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.TripID, expense.Name, expense.Description, int64(expense.Amount),
			expense.PaidBy, string(expense.Split.Type()), expense.CreatedBy, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, userID := range expense.Participants {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_participants (expense_id, user_id, position) VALUES (?, ?, ?)",
				expense.ID, userID, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense participant: %w", err)
			}
		}

		if custom, ok := expense.Split.(models.CustomSplit); ok {
			for i, item := range custom.Items {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO expense_items (expense_id, position, participant, label, amount) VALUES (?, ?, ?, ?, ?)",
					expense.ID, i, item.Participant, item.Label, int64(item.Amount),
				)
				if err != nil {
					return fmt.Errorf("failed to insert expense item: %w", err)
				}
			}
			for i, fee := range custom.Fees {
				_, err = tx.ExecContext(ctx,
					"INSERT INTO expense_fees (expense_id, position, label, amount) VALUES (?, ?, ?, ?)",
					expense.ID, i, fee.Label, int64(fee.Amount),
				)
				if err != nil {
					return fmt.Errorf("failed to insert expense fee: %w", err)
				}
			}
		}

		for i := range expense.Details {
			d := &expense.Details[i]
			if d.ID == "" {
				d.ID = uuid.New().String()
			}
			d.ExpenseID = expense.ID
			d.CreatedAt = expense.CreatedAt
			d.UpdatedAt = expense.CreatedAt
			_, err = tx.ExecContext(ctx,
				`INSERT INTO expense_details (id, expense_id, participant, position, owed, item, is_paid, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				d.ID, d.ExpenseID, d.Participant, i, int64(d.Owed), d.Item, boolToInt(d.Paid), d.CreatedAt, d.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense detail: %w", err)
			}
		}

		_, err = bumpVersion(ctx, tx, expense.TripID)
		return err
	})
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := loadExpenses(ctx, s.db, "id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expenses[0], nil
}

// ListExpensesByTrip retrieves all expenses of a trip, oldest first.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error) {
	return loadExpenses(ctx, s.db, "trip_id = ?", tripID)
}

// MarkExpenseDetailPaid flags one participant's share of an expense as paid.
func (s *SQLiteStore) MarkExpenseDetailPaid(ctx context.Context, expenseID, participant string) (*models.ExpenseDetail, error) {
	var detail *models.ExpenseDetail
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE expense_details SET is_paid = 1, updated_at = ? WHERE expense_id = ? AND participant = ? AND is_paid = 0",
			time.Now().Unix(), expenseID, participant,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense detail: %w", err)
		}

		details, err := getDetails(ctx, tx, []string{expenseID})
		if err != nil {
			return err
		}
		for _, d := range details[expenseID] {
			if d.Participant == participant {
				d := d
				detail = &d
				return nil
			}
		}
		return fmt.Errorf("detail for %s in expense %s: %w", participant, expenseID, storage.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// loadExpenses reads the expenses matching where together with their
// participants, split and details. Child rows are fetched in one query per
// table once the expense rows are closed.
func loadExpenses(ctx context.Context, q queryer, where string, args ...any) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE "+where+" ORDER BY created_at, rowid",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	splitTypes := make(map[string]models.SplitType)
	for rows.Next() {
		e := &models.Expense{}
		var amount int64
		var splitType string
		if err := rows.Scan(&e.ID, &e.TripID, &e.Name, &e.Description, &amount,
			&e.PaidBy, &splitType, &e.CreatedBy, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Amount = money.Money(amount)
		splitTypes[e.ID] = models.SplitType(splitType)
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}

	participants, err := getExpenseParticipants(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	items, err := getItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	fees, err := getFees(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	details, err := getDetails(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	for _, e := range expenses {
		e.Participants = participants[e.ID]
		e.Details = details[e.ID]
		switch splitTypes[e.ID] {
		case models.SplitTypeEqual:
			e.Split = models.EqualSplit{}
		case models.SplitTypeCustom:
			e.Split = models.CustomSplit{Items: items[e.ID], Fees: fees[e.ID]}
		default:
			return nil, fmt.Errorf("expense %s has unknown split type %q", e.ID, splitTypes[e.ID])
		}
	}

	return expenses, nil
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "expense_id IN (" + placeholders(len(ids)) + ")", args
}

func getExpenseParticipants(ctx context.Context, q queryer, expenseIDs []string) (map[string][]string, error) {
	clause, args := inClause(expenseIDs)
	rows, err := q.QueryContext(ctx,
		"SELECT expense_id, user_id FROM expense_participants WHERE "+clause+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense participants: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var expenseID, userID string
		if err := rows.Scan(&expenseID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan expense participant: %w", err)
		}
		result[expenseID] = append(result[expenseID], userID)
	}
	return result, rows.Err()
}

func getItems(ctx context.Context, q queryer, expenseIDs []string) (map[string][]models.SplitItem, error) {
	clause, args := inClause(expenseIDs)
	rows, err := q.QueryContext(ctx,
		"SELECT expense_id, participant, label, amount FROM expense_items WHERE "+clause+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense items: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.SplitItem)
	for rows.Next() {
		var expenseID string
		var amount int64
		var item models.SplitItem
		if err := rows.Scan(&expenseID, &item.Participant, &item.Label, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense item: %w", err)
		}
		item.Amount = money.Money(amount)
		result[expenseID] = append(result[expenseID], item)
	}
	return result, rows.Err()
}

func getFees(ctx context.Context, q queryer, expenseIDs []string) (map[string][]models.AdditionalFee, error) {
	clause, args := inClause(expenseIDs)
	rows, err := q.QueryContext(ctx,
		"SELECT expense_id, label, amount FROM expense_fees WHERE "+clause+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense fees: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.AdditionalFee)
	for rows.Next() {
		var expenseID string
		var amount int64
		var fee models.AdditionalFee
		if err := rows.Scan(&expenseID, &fee.Label, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense fee: %w", err)
		}
		fee.Amount = money.Money(amount)
		result[expenseID] = append(result[expenseID], fee)
	}
	return result, rows.Err()
}

func getDetails(ctx context.Context, q queryer, expenseIDs []string) (map[string][]models.ExpenseDetail, error) {
	clause, args := inClause(expenseIDs)
	rows, err := q.QueryContext(ctx,
		`SELECT id, expense_id, participant, owed, item, is_paid, created_at, updated_at
		 FROM expense_details WHERE `+clause+` ORDER BY expense_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense details: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.ExpenseDetail)
	for rows.Next() {
		var d models.ExpenseDetail
		var owed int64
		var paid int
		if err := rows.Scan(&d.ID, &d.ExpenseID, &d.Participant, &owed, &d.Item, &paid, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense detail: %w", err)
		}
		d.Owed = money.Money(owed)
		d.Paid = paid != 0
		result[d.ExpenseID] = append(result[d.ExpenseID], d)
	}
	return result, rows.Err()
}
