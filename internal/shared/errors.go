// Package shared holds cross-cutting helpers used by every domain package.
package shared

import "errors"

// Error taxonomy roots. Domain packages wrap these with more specific
// sentinels so callers can match either the class or the exact condition.
var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates a state conflict such as a duplicate link.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientFunds indicates an operation would drive an account
	// balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
