package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository defines expense data access.
type Repository interface {
	Insert(ctx context.Context, in SubmitInput) (Expense, error)
	Get(ctx context.Context, id int64) (Expense, error)
	List(ctx context.Context) ([]Expense, error)
	SetStatus(ctx context.Context, id int64, status ExpenseStatus, approvedBy *int64) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const expenseColumns = `id, title, category, amount::text, incurred_at, status, approved_by, note, created_at, updated_at`

func scanExpense(row pgx.Row) (Expense, error) {
	var (
		e      Expense
		amount string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Category, &amount, &e.IncurredAt, &e.Status, &e.ApprovedBy, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Expense{}, err
	}
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: parse amount: %w", err)
	}
	return e, nil
}

func (r *pgRepository) Insert(ctx context.Context, in SubmitInput) (Expense, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (title, category, amount, incurred_at, status, note)
		VALUES ($1, $2, $3::numeric, $4, 'PENDING', $5)
		RETURNING `+expenseColumns,
		in.Title, in.Category, in.Amount.String(), in.IncurredAt, in.Note)
	return scanExpense(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrExpenseNotFound
	}
	return e, err
}

func (r *pgRepository) List(ctx context.Context) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgRepository) SetStatus(ctx context.Context, id int64, status ExpenseStatus, approvedBy *int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE expenses SET status = $2, approved_by = COALESCE($3, approved_by), updated_at = now() WHERE id = $1`,
		id, string(status), approvedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}
	return nil
}
