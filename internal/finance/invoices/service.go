package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
	"github.com/jumuiya-app/jumuiya/internal/shared"
)

var (
	ErrInvoiceNotFound = fmt.Errorf("%w: invoice", shared.ErrNotFound)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrMemberRequired  = fmt.Errorf("%w: member is required", shared.ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid status for operation", shared.ErrConflict)
)

// LedgerPoster posts transactions to the ledger.
type LedgerPoster interface {
	Create(ctx context.Context, in ledger.CreateInput) (ledger.Result, error)
}

// Service handles invoice business logic.
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

// Create registers a draft invoice, generating a number when none is given.
func (s *Service) Create(ctx context.Context, in CreateInput) (Invoice, error) {
	if in.MemberID <= 0 {
		return Invoice{}, ErrMemberRequired
	}
	if in.Amount.Sign() <= 0 {
		return Invoice{}, ErrInvalidAmount
	}
	if in.DueAt.IsZero() {
		in.DueAt = time.Now().AddDate(0, 0, 30)
	}
	if in.Number == "" {
		num, err := s.repo.NextNumber(ctx)
		if err != nil {
			return Invoice{}, err
		}
		in.Number = num
	}
	return s.repo.Insert(ctx, in)
}

// Send moves a draft invoice to SENT.
func (s *Service) Send(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status != StatusDraft {
		return Invoice{}, ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, StatusSent, nil); err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, id)
}

// Void cancels an invoice that has not been paid.
func (s *Service) Void(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status == StatusPaid || inv.Status == StatusVoid {
		return Invoice{}, ErrInvalidStatus
	}
	if err := s.repo.SetStatus(ctx, id, StatusVoid, nil); err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, id)
}

// MarkPaid posts the invoice amount to the ledger as income on the given
// account and flips the status to PAID. A ledger Conflict means the invoice
// was already posted and is treated as a no-op.
func (s *Service) MarkPaid(ctx context.Context, id, accountID int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if inv.Status == StatusPaid {
		return inv, nil
	}
	if inv.Status == StatusVoid {
		return Invoice{}, ErrInvalidStatus
	}

	invoiceID := inv.ID
	_, err = s.ledger.Create(ctx, ledger.CreateInput{
		AccountID:   accountID,
		Amount:      inv.Amount,
		Type:        ledger.TypeIncome,
		Category:    "invoice-settlement",
		Description: fmt.Sprintf("Invoice %s settled by member %d", inv.Number, inv.MemberID),
		InvoiceID:   &invoiceID,
	})
	if err != nil && !errors.Is(err, shared.ErrConflict) {
		return Invoice{}, err
	}
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Info("invoice already posted to ledger", slog.Int64("invoice_id", inv.ID))
	}

	paidAt := time.Now().UTC()
	if err := s.repo.SetStatus(ctx, id, StatusPaid, &paidAt); err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, id)
}

// Get returns a single invoice.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// List returns all invoices.
func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	return s.repo.List(ctx)
}
