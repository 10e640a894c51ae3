// Package payments records member dues and posts them to the ledger when
// marked as paid.
package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates payment lifecycle states.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusPaid    PaymentStatus = "PAID"
)

// Payment models a member dues payment.
type Payment struct {
	ID        int64           `json:"id"`
	MemberID  int64           `json:"memberId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Status    PaymentStatus   `json:"status"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RecordInput describes a new pending payment.
type RecordInput struct {
	MemberID  int64
	Amount    decimal.Decimal
	Method    string
	Reference string
}
