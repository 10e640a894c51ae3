package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher emits ledger events to the outside world. Publishing is best
// effort; failures are logged and never abort a committed operation.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Event kinds emitted after successful ledger writes.
const (
	EventTransactionApplied  = "transaction.applied"
	EventTransactionAmended  = "transaction.amended"
	EventTransactionReversed = "transaction.reversed"
)

// TransactionEvent is the payload published after each ledger write.
type TransactionEvent struct {
	EventID       string          `json:"eventId"`
	Kind          string          `json:"kind"`
	TransactionID int64           `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Balance       decimal.Decimal `json:"balance"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

// Service implements the ledger consistency operations. Every mutation runs
// its balance check and writes inside one repository transaction scope.
type Service struct {
	repo      Repository
	cache     *SummaryCache
	publisher EventPublisher
	logger    *slog.Logger
}

// NewService builds a Service. cache and publisher may be nil.
func NewService(repo Repository, cache *SummaryCache, publisher EventPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, publisher: publisher, logger: logger}
}

func applyEffect(balance decimal.Decimal, t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == TypeExpense {
		return balance.Sub(amount)
	}
	return balance.Add(amount)
}

// Create validates the input, applies the transaction to its account and
// persists both atomically. A prospective negative balance rejects the whole
// operation with no state change.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	if in.Amount.Sign() <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if !in.Type.Valid() {
		return Result{}, ErrInvalidType
	}
	links := in.links()
	if len(links) > 1 {
		return Result{}, ErrMultipleLinks
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	var res Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		balance, err := tx.AccountBalanceForUpdate(ctx, in.AccountID)
		if err != nil {
			return err
		}
		for kind, id := range links {
			exists, err := tx.LinkTargetExists(ctx, kind, id)
			if err != nil {
				return err
			}
			if !exists {
				return ErrLinkedRecordNotFound
			}
			taken, err := tx.LinkTaken(ctx, kind, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrAlreadyLinked
			}
		}
		newBalance := applyEffect(balance, in.Type, in.Amount)
		if newBalance.IsNegative() {
			return ErrInsufficientFunds
		}
		trx, err := tx.InsertTransaction(ctx, in)
		if err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, in.AccountID, newBalance); err != nil {
			return err
		}
		res = Result{Transaction: trx, AccountID: in.AccountID, AccountBalance: newBalance}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.afterWrite(ctx, EventTransactionApplied, res)
	return res, nil
}

// Update amends an unlinked transaction. The old effect is reversed and the
// new one applied in a single combined step inside one transaction scope, so
// no concurrent writer can interleave between the two.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Result, error) {
	if in.Amount != nil && in.Amount.Sign() <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if in.Type != nil && !in.Type.Valid() {
		return Result{}, ErrInvalidType
	}

	var res Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		trx, err := tx.GetTransactionForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}
		if trx.Linked() {
			return ErrTransactionLinked
		}
		balance, err := tx.AccountBalanceForUpdate(ctx, trx.AccountID)
		if err != nil {
			return err
		}

		amended := trx
		if in.Amount != nil {
			amended.Amount = *in.Amount
		}
		if in.Type != nil {
			amended.Type = *in.Type
		}
		if in.Date != nil {
			amended.Date = *in.Date
		}
		if in.Category != nil {
			amended.Category = *in.Category
		}
		if in.Description != nil {
			amended.Description = *in.Description
		}

		finalBalance := balance.Sub(trx.Effect()).Add(amended.Effect())
		if finalBalance.IsNegative() {
			return ErrInsufficientFunds
		}
		if err := tx.UpdateTransaction(ctx, amended); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, trx.AccountID, finalBalance); err != nil {
			return err
		}
		res = Result{Transaction: amended, AccountID: trx.AccountID, AccountBalance: finalBalance}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.afterWrite(ctx, EventTransactionAmended, res)
	return res, nil
}

// Remove reverses an unlinked transaction's effect and deletes its row
// atomically. When the account row is already gone the transaction row alone
// is deleted.
func (s *Service) Remove(ctx context.Context, id int64) error {
	var res Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		trx, err := tx.GetTransactionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if trx.Linked() {
			return ErrTransactionLinked
		}
		balance, err := tx.AccountBalanceForUpdate(ctx, trx.AccountID)
		if errors.Is(err, ErrAccountNotFound) {
			res = Result{Transaction: trx, AccountID: trx.AccountID}
			return tx.DeleteTransaction(ctx, id)
		}
		if err != nil {
			return err
		}
		reversed := balance.Sub(trx.Effect())
		if reversed.IsNegative() {
			return ErrInsufficientFunds
		}
		if err := tx.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		if err := tx.UpdateAccountBalance(ctx, trx.AccountID, reversed); err != nil {
			return err
		}
		res = Result{Transaction: trx, AccountID: trx.AccountID, AccountBalance: reversed}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, EventTransactionReversed, res)
	return nil
}

// Get returns a single transaction.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns transactions matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, f)
}

// afterWrite invalidates the summary cache and publishes the event. Both are
// best effort; the database write has already committed.
func (s *Service) afterWrite(ctx context.Context, kind string, res Result) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("summary cache bump failed", slog.Any("error", err))
		}
	}
	if s.publisher == nil {
		return
	}
	event := TransactionEvent{
		EventID:       uuid.NewString(),
		Kind:          kind,
		TransactionID: res.Transaction.ID,
		AccountID:     res.AccountID,
		Amount:        res.Transaction.Amount,
		Type:          res.Transaction.Type,
		Balance:       res.AccountBalance,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event.Kind, event); err != nil {
		s.logger.Warn("ledger event publish failed",
			slog.String("kind", kind),
			slog.Int64("transaction_id", res.Transaction.ID),
			slog.Any("error", err))
	}
}
