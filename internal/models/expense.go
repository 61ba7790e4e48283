package models

import "github.com/mmynk/tripsplit/internal/money"

// SplitType identifies how an expense is divided among its participants.
type SplitType string

const (
	SplitTypeEqual  SplitType = "equal"
	SplitTypeCustom SplitType = "custom"
)

// Split is the split mode of an expense: either EqualSplit or CustomSplit.
type Split interface {
	Type() SplitType
	isSplit()
}

// EqualSplit divides the amount evenly among all participants.
type EqualSplit struct{}

func (EqualSplit) Type() SplitType { return SplitTypeEqual }
func (EqualSplit) isSplit()        {}

// CustomSplit assigns explicit item amounts to participants. Fees are spread
// equally over every participant on top of their items.
type CustomSplit struct {
	Items []SplitItem
	Fees  []AdditionalFee
}

func (CustomSplit) Type() SplitType { return SplitTypeCustom }
func (CustomSplit) isSplit()        {}

// SplitItem is one explicit line of a custom split.
type SplitItem struct {
	Participant string
	Label       string
	Amount      money.Money
}

// AdditionalFee is a charge (service, tax, tip) shared by all participants.
type AdditionalFee struct {
	Label  string
	Amount money.Money
}

// Expense is a single payment made by one user on behalf of a set of participants.
// Expenses are immutable once created.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Name is a short label (e.g., "Dinner at Jimbaran").
	Name string

	// Description is optional free text.
	Description string

	// Amount is the total paid. Always positive.
	Amount money.Money

	// PaidBy is the user ID of the payer. The payer need not be a participant.
	PaidBy string

	// Participants are the user IDs sharing the expense, in entry order.
	Participants []string

	// Split is how Amount is divided among Participants.
	Split Split

	// CreatedBy is the user ID who recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Details are the normalized per-participant shares, one per participant.
	Details []ExpenseDetail
}

// ExpenseDetail is one participant's share of an expense.
type ExpenseDetail struct {
	ID          string
	ExpenseID   string
	Participant string
	Owed        money.Money

	// Item describes what the share covers: the custom item labels or the expense name.
	Item string

	// Paid is a per-line acknowledgement and does not affect balances.
	Paid bool

	CreatedAt int64
	UpdatedAt int64
}
