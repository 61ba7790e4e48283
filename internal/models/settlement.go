package models

import "github.com/mmynk/tripsplit/internal/money"

// Balance is one user's aggregate position over a trip.
type Balance struct {
	UserID      string
	DisplayName string

	// Paid is the total of expenses this user paid for.
	Paid money.Money

	// Owed is the total of this user's expense shares.
	Owed money.Money

	// Net is Paid - Owed. Positive = owed money by others, negative = owes money.
	Net money.Money

	// Settled is payments sent minus payments received.
	Settled money.Money

	// Outstanding is Net + Settled: what remains after recorded payments.
	Outstanding money.Money
}

// SettlementTransaction is a computed payment from a debtor to a creditor.
type SettlementTransaction struct {
	From   string
	To     string
	Amount money.Money
	Paid   bool

	// PaidAt is the Unix timestamp of the recorded payment; zero while outstanding.
	PaidAt int64
}

// Payment records that a settlement transaction was paid.
// Payments are the only settlement state that is persisted.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// TripID is the trip this payment settles debts in.
	TripID string

	// From is the debtor who paid.
	From string

	// To is the creditor who received the payment.
	To string

	// Amount is the payment amount.
	Amount money.Money

	// CreatedBy is the user ID who recorded the payment.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// TripVersion is the trip version the payment was computed against.
	TripVersion int64
}

// Settlement is the computed settlement view of a trip at one version.
type Settlement struct {
	TripID       string
	Version      int64
	Balances     []Balance
	Transactions []SettlementTransaction
}

// Ledger is a consistent snapshot of everything a settlement is computed from.
type Ledger struct {
	Trip     *Trip
	Expenses []*Expense
	Payments []*Payment
	Users    map[string]*User
}
