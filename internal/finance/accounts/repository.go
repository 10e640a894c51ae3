package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository defines account data access.
type Repository interface {
	Insert(ctx context.Context, in CreateInput) (Account, error)
	Update(ctx context.Context, a Account) error
	Get(ctx context.Context, id int64) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const accountColumns = `id, name, type, balance::text, description, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var (
		a       Account
		balance string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Type, &balance, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	a.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return Account{}, fmt.Errorf("accounts: parse balance: %w", err)
	}
	return a, nil
}

func (r *pgRepository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO financial_accounts (name, type, balance, opening_balance, description)
		VALUES ($1, $2, $3::numeric, $3::numeric, $4)
		RETURNING `+accountColumns,
		in.Name, string(in.Type), in.OpeningBalance.String(), in.Description)
	return scanAccount(row)
}

func (r *pgRepository) Update(ctx context.Context, a Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE financial_accounts
		SET name = $2, type = $3, description = $4, updated_at = now()
		WHERE id = $1`,
		a.ID, a.Name, string(a.Type), a.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM financial_accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (r *pgRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM financial_accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
