package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jumuiya-app/jumuiya/internal/shared"
)

var (
	ErrAccountNotFound = fmt.Errorf("%w: account", shared.ErrNotFound)
	ErrNameRequired    = fmt.Errorf("%w: account name is required", shared.ErrValidation)
	ErrUnknownType     = fmt.Errorf("%w: unknown account type", shared.ErrValidation)
	ErrNegativeOpening = fmt.Errorf("%w: opening balance cannot be negative", shared.ErrValidation)
)

// Service handles account business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new account.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Account{}, ErrNameRequired
	}
	if !in.Type.Valid() {
		return Account{}, ErrUnknownType
	}
	if in.OpeningBalance.IsNegative() {
		return Account{}, ErrNegativeOpening
	}
	return s.repo.Insert(ctx, in)
}

// Update amends account metadata. Balance changes go through the ledger.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Account, error) {
	a, err := s.repo.Get(ctx, in.ID)
	if err != nil {
		return Account{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Account{}, ErrNameRequired
		}
		a.Name = name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return Account{}, ErrUnknownType
		}
		a.Type = *in.Type
	}
	if in.Description != nil {
		a.Description = *in.Description
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return Account{}, err
	}
	return s.repo.Get(ctx, in.ID)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.Get(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}
