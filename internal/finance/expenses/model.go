// Package expenses tracks association expenses and posts approved expenses to
// the ledger.
package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus enumerates expense lifecycle states.
type ExpenseStatus string

const (
	StatusPending  ExpenseStatus = "PENDING"
	StatusApproved ExpenseStatus = "APPROVED"
	StatusRejected ExpenseStatus = "REJECTED"
)

// Expense models an association expense awaiting approval.
type Expense struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Category   string          `json:"category,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	IncurredAt time.Time       `json:"incurredAt"`
	Status     ExpenseStatus   `json:"status"`
	ApprovedBy *int64          `json:"approvedBy,omitempty"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// SubmitInput describes a new pending expense.
type SubmitInput struct {
	Title      string
	Category   string
	Amount     decimal.Decimal
	IncurredAt time.Time
	Note       string
}
