// Package ledger keeps financial account balances consistent with their
// transaction records. All balance mutations in the system go through this
// package.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jumuiya-app/jumuiya/internal/shared"
)

// TransactionType enumerates the direction of a transaction. Direction is
// carried here, never in the sign of the amount.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether the type is a known direction.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// LinkKind identifies the originating record a transaction may be linked to.
type LinkKind string

const (
	LinkPayment LinkKind = "payment"
	LinkInvoice LinkKind = "invoice"
	LinkExpense LinkKind = "expense"
)

// Sentinel errors. Each wraps a taxonomy root from internal/shared so callers
// can match the class or the exact condition.
var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrInvalidType          = fmt.Errorf("%w: unknown transaction type", shared.ErrValidation)
	ErrMultipleLinks        = fmt.Errorf("%w: at most one originating record may be linked", shared.ErrValidation)
	ErrAccountNotFound      = fmt.Errorf("%w: account", shared.ErrNotFound)
	ErrTransactionNotFound  = fmt.Errorf("%w: transaction", shared.ErrNotFound)
	ErrLinkedRecordNotFound = fmt.Errorf("%w: linked record", shared.ErrNotFound)
	ErrAlreadyLinked        = fmt.Errorf("%w: record already has a transaction", shared.ErrConflict)
	ErrTransactionLinked    = fmt.Errorf("%w: linked transactions are immutable", shared.ErrConflict)
	ErrInsufficientFunds    = fmt.Errorf("%w: balance would become negative", shared.ErrInsufficientFunds)
)

// Transaction is a single ledger entry applied to exactly one account.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	PaymentID   *int64          `json:"paymentId,omitempty"`
	InvoiceID   *int64          `json:"invoiceId,omitempty"`
	ExpenseID   *int64          `json:"expenseId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Linked reports whether the transaction carries a back-reference to an
// originating payment, invoice or expense.
func (t Transaction) Linked() bool {
	return t.PaymentID != nil || t.InvoiceID != nil || t.ExpenseID != nil
}

// Effect returns the signed impact of the transaction on its account balance.
func (t Transaction) Effect() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CreateInput describes a transaction to be applied.
type CreateInput struct {
	AccountID   int64
	Amount      decimal.Decimal
	Type        TransactionType
	Date        time.Time
	Category    string
	Description string
	PaymentID   *int64
	InvoiceID   *int64
	ExpenseID   *int64
}

// links enumerates the supplied back-references.
func (in CreateInput) links() map[LinkKind]int64 {
	out := make(map[LinkKind]int64, 1)
	if in.PaymentID != nil {
		out[LinkPayment] = *in.PaymentID
	}
	if in.InvoiceID != nil {
		out[LinkInvoice] = *in.InvoiceID
	}
	if in.ExpenseID != nil {
		out[LinkExpense] = *in.ExpenseID
	}
	return out
}

// UpdateInput describes an amendment to an unlinked transaction. Nil fields
// are left unchanged.
type UpdateInput struct {
	ID          int64
	Amount      *decimal.Decimal
	Type        *TransactionType
	Date        *time.Time
	Category    *string
	Description *string
}

// Filter narrows transaction listings. The zero value matches everything.
type Filter struct {
	AccountID *int64
	Type      *TransactionType
	Category  string
	From      time.Time
	To        time.Time
	Page      shared.Page
}

// SummaryFilter narrows the summary aggregation window.
type SummaryFilter struct {
	AccountID *int64
	From      time.Time
	To        time.Time
}

// CategoryTotals breaks a category down by direction.
type CategoryTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Summary aggregates a filtered transaction set.
type Summary struct {
	TotalIncome      decimal.Decimal           `json:"totalIncome"`
	TotalExpense     decimal.Decimal           `json:"totalExpense"`
	NetBalance       decimal.Decimal           `json:"netBalance"`
	TransactionCount int64                     `json:"transactionCount"`
	Categories       map[string]CategoryTotals `json:"categories"`
}

// Result carries the persisted transaction together with the account balance
// it produced.
type Result struct {
	Transaction    Transaction     `json:"transaction"`
	AccountID      int64           `json:"accountId"`
	AccountBalance decimal.Decimal `json:"accountBalance"`
}
