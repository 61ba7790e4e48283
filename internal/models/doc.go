// Package models defines the core domain models for Tripsplit.
//
// # Models
//
//   - Trip: a shared context grouping expenses among participants
//   - Expense: one payment made by a payer on behalf of participants
//   - ExpenseDetail: a participant's normalized share of an expense
//   - Balance: derived per-user paid/owed/net over a trip
//   - SettlementTransaction: a derived debtor to creditor transfer
//   - Payment: a persisted record that a settlement transaction was paid
//   - User: display information for an authenticated identity
//
// # Design Principles
//
// 1. **Integer money**: all amounts are money.Money minor units
// 2. **Derived views**: balances and settlements are computed, never stored;
// only payments survive recomputation
// 3. **Avoid circular references**: use ID strings instead of pointers for relationships
// 4. **Unrepresentable states**: the split mode is a tagged variant, so custom
// lines cannot accompany an equal split
package models
