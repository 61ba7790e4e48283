package api

// SplitItem assigns part of a custom split to one participant.
type SplitItem struct {
	ParticipantID string `json:"participant_id" validate:"required"`
	Label         string `json:"label" validate:"max=200"`
	Amount        string `json:"amount" validate:"required"`
}

// AdditionalFee is shared equally by every participant of a custom split.
type AdditionalFee struct {
	Label  string `json:"label" validate:"max=200"`
	Amount string `json:"amount" validate:"required"`
}

// ExpenseDetail is one participant's share of an expense.
type ExpenseDetail struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Owed          string `json:"owed"`
	Item          string `json:"item"`
	Paid          bool   `json:"paid"`
}

type Expense struct {
	ID             string           `json:"id"`
	TripID         string           `json:"trip_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Amount         string           `json:"amount"`
	PaidBy         string           `json:"paid_by"`
	Participants   []string         `json:"participants"`
	SplitType      string           `json:"split_type"`
	CustomSplits   []*SplitItem     `json:"custom_splits,omitempty"`
	AdditionalFees []*AdditionalFee `json:"additional_fees,omitempty"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      int64            `json:"created_at"`
	Details        []*ExpenseDetail `json:"details,omitempty"`
}

// AddExpenseRequest records an expense. An empty SplitType means "equal".
type AddExpenseRequest struct {
	TripID         string           `json:"trip_id" validate:"required"`
	Name           string           `json:"name" validate:"required,max=200"`
	Description    string           `json:"description" validate:"max=2000"`
	Amount         string           `json:"amount" validate:"required"`
	PaidBy         string           `json:"paid_by" validate:"required"`
	Participants   []string         `json:"participants" validate:"required,min=1,dive,required"`
	SplitType      string           `json:"split_type" validate:"omitempty,oneof=equal custom"`
	CustomSplits   []*SplitItem     `json:"custom_splits" validate:"dive,required"`
	AdditionalFees []*AdditionalFee `json:"additional_fees" validate:"dive,required"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type GetExpenseReportRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

// GetExpenseReportResponse lists every expense with its per-participant lines.
type GetExpenseReportResponse struct {
	TripID       string     `json:"trip_id"`
	Currency     string     `json:"currency"`
	Total        string     `json:"total"`
	Participants []*User    `json:"participants"`
	Expenses     []*Expense `json:"expenses"`
}

type MarkExpenseDetailPaidRequest struct {
	TripID    string `json:"trip_id" validate:"required"`
	ExpenseID string `json:"expense_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

type MarkExpenseDetailPaidResponse struct {
	Detail *ExpenseDetail `json:"detail"`
}
