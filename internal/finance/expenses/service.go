package expenses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
	"github.com/jumuiya-app/jumuiya/internal/shared"
)

var (
	ErrExpenseNotFound = fmt.Errorf("%w: expense", shared.ErrNotFound)
	ErrTitleRequired   = fmt.Errorf("%w: expense title is required", shared.ErrValidation)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status for operation", shared.ErrConflict)
)

// LedgerPoster posts transactions to the ledger.
type LedgerPoster interface {
	Create(ctx context.Context, in ledger.CreateInput) (ledger.Result, error)
}

// Service handles expense business logic.
type Service struct {
	repo   Repository
	ledger LedgerPoster
	logger *slog.Logger
}

// NewService builds a Service.
func NewService(repo Repository, poster LedgerPoster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: poster, logger: logger}
}

// Submit registers a pending expense.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Expense, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Expense{}, ErrTitleRequired
	}
	if in.Amount.Sign() <= 0 {
		return Expense{}, ErrInvalidAmount
	}
	if in.IncurredAt.IsZero() {
		in.IncurredAt = time.Now().UTC()
	}
	return s.repo.Insert(ctx, in)
}

// Approve posts the expense to the ledger on the given account and flips the
// status to APPROVED. InsufficientFunds aborts the approval entirely; the
// expense stays PENDING. A ledger Conflict means the expense was already
// posted and is treated as a no-op.
func (s *Service) Approve(ctx context.Context, id, accountID, approvedBy int64) (Expense, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if e.Status == StatusApproved {
		return e, nil
	}
	if e.Status == StatusRejected {
		return Expense{}, ErrInvalidStatus
	}

	expenseID := e.ID
	_, err = s.ledger.Create(ctx, ledger.CreateInput{
		AccountID:   accountID,
		Amount:      e.Amount,
		Type:        ledger.TypeExpense,
		Category:    e.Category,
		Description: fmt.Sprintf("Expense #%d: %s", e.ID, e.Title),
		ExpenseID:   &expenseID,
	})
	if err != nil && !errors.Is(err, shared.ErrConflict) {
		return Expense{}, err
	}
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Info("expense already posted to ledger", slog.Int64("expense_id", e.ID))
	}

	if err := s.repo.SetStatus(ctx, id, StatusApproved, &approvedBy); err != nil {
		return Expense{}, err
	}
	return s.repo.Get(ctx, id)
}

// Reject declines a pending expense. No ledger interaction.
func (s *Service) Reject(ctx context.Context, id int64) (Expense, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	if e.Status != StatusPending {
		return Expense{}, ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, StatusRejected, nil); err != nil {
		return Expense{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns a single expense.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	return s.repo.Get(ctx, id)
}

// List returns all expenses.
func (s *Service) List(ctx context.Context) ([]Expense, error) {
	return s.repo.List(ctx)
}
