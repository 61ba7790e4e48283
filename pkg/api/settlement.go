package api

// Balance is one user's position over a trip. Positive amounts are owed to the user.
type Balance struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Paid        string `json:"paid"`
	Owed        string `json:"owed"`
	Net         string `json:"net"`
	Settled     string `json:"settled"`
	Outstanding string `json:"outstanding"`
}

// Transaction is a payment from a debtor to a creditor.
type Transaction struct {
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   string `json:"amount"`
	Paid     bool   `json:"paid"`
	PaidAt   int64  `json:"paid_at,omitempty"`
}

type Payment struct {
	ID          string `json:"id"`
	TripID      string `json:"trip_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	TripVersion int64  `json:"trip_version"`
}

type GetBalancesRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type GetBalancesResponse struct {
	Currency string     `json:"currency"`
	Balances []*Balance `json:"balances"`
}

type GetSettlementRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

// GetSettlementResponse lists outstanding transactions first, then paid ones.
type GetSettlementResponse struct {
	TripID       string         `json:"trip_id"`
	Version      int64          `json:"version"`
	Currency     string         `json:"currency"`
	Balances     []*Balance     `json:"balances"`
	Transactions []*Transaction `json:"transactions"`
}

type MarkTransactionPaidRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required,nefield=From"`
	Amount string `json:"amount" validate:"required"`
}

// MarkTransactionPaidResponse carries the recorded payment. AlreadyPaid is set
// when the transaction had been marked paid before this call.
type MarkTransactionPaidResponse struct {
	Payment     *Payment `json:"payment"`
	AlreadyPaid bool     `json:"already_paid"`
}
