package payments

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
	ErrPaymentNotFound = fmt.Errorf("%w: payment", shared.ErrNotFound)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	ErrMemberRequired  = fmt.Errorf("%w: member is required", shared.ErrValidation)
)

// LedgerPoster posts transactions to the ledger.
type LedgerPoster interface {
	Create(ctx context.Context, in ledger.CreateInput) (ledger.Result, error)
}

// Service handles payment business logic.
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

// Record registers a pending dues payment.
func (s *Service) Record(ctx context.Context, in RecordInput) (Payment, error) {
	if in.MemberID <= 0 {
		return Payment{}, ErrMemberRequired
	}
	if in.Amount.Sign() <= 0 {
		return Payment{}, ErrInvalidAmount
	}
	return s.repo.Insert(ctx, in)
}

// MarkPaid posts the payment to the ledger as income on the given account and
// flips the status to PAID. The ledger guarantees at most one transaction per
// payment; a Conflict from it means the posting already happened and is
// treated as a no-op, not a failure.
func (s *Service) MarkPaid(ctx context.Context, id, accountID int64) (Payment, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if p.Status == StatusPaid {
		return p, nil
	}

	paymentID := p.ID
	_, err = s.ledger.Create(ctx, ledger.CreateInput{
		AccountID:   accountID,
		Amount:      p.Amount,
		Type:        ledger.TypeIncome,
		Category:    "membership-dues",
		Description: fmt.Sprintf("Dues payment #%d from member %d", p.ID, p.MemberID),
		PaymentID:   &paymentID,
	})
	if err != nil && !errors.Is(err, shared.ErrConflict) {
		return Payment{}, err
	}
	if errors.Is(err, shared.ErrConflict) {
		s.logger.Info("payment already posted to ledger", slog.Int64("payment_id", p.ID))
	}

	paidAt := time.Now().UTC()
	if err := s.repo.SetPaid(ctx, p.ID, paidAt); err != nil {
		return Payment{}, err
	}
	return s.repo.Get(ctx, p.ID)
}

// Get returns a single payment.
func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

// List returns all payments.
func (s *Service) List(ctx context.Context) ([]Payment, error) {
	return s.repo.List(ctx)
}
