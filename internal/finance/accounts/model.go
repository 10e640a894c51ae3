// Package accounts manages financial accounts. Balances are owned by the
// ledger package; nothing here writes the balance column after creation.
package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates payment rails.
type AccountType string

const (
	TypeCash        AccountType = "CASH"
	TypeBank        AccountType = "BANK"
	TypeMobileMoney AccountType = "MOBILE_MONEY"
)

// Valid reports whether the type is a known rail.
func (t AccountType) Valid() bool {
	switch t {
	case TypeCash, TypeBank, TypeMobileMoney:
		return true
	}
	return false
}

// Account models a named pool of funds with a running balance.
type Account struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	Balance     decimal.Decimal `json:"balance"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateInput describes a new account.
type CreateInput struct {
	Name           string
	Type           AccountType
	OpeningBalance decimal.Decimal
	Description    string
}

// UpdateInput amends account metadata. The balance is never updatable here.
type UpdateInput struct {
	ID          int64
	Name        *string
	Type        *AccountType
	Description *string
}
