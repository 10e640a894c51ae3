// Package invoices manages member invoices and posts settled invoices to the
// ledger.
package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft InvoiceStatus = "DRAFT"
	StatusSent  InvoiceStatus = "SENT"
	StatusPaid  InvoiceStatus = "PAID"
	StatusVoid  InvoiceStatus = "VOID"
)

// Invoice models a member invoice.
type Invoice struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	MemberID  int64           `json:"memberId"`
	Amount    decimal.Decimal `json:"amount"`
	DueAt     time.Time       `json:"dueAt"`
	Status    InvoiceStatus   `json:"status"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CreateInput describes a new draft invoice.
type CreateInput struct {
	Number   string
	MemberID int64
	Amount   decimal.Decimal
	DueAt    time.Time
}
