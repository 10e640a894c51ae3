package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository defines payment data access.
type Repository interface {
	Insert(ctx context.Context, in RecordInput) (Payment, error)
	Get(ctx context.Context, id int64) (Payment, error)
	List(ctx context.Context) ([]Payment, error)
	SetPaid(ctx context.Context, id int64, paidAt time.Time) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const paymentColumns = `id, member_id, amount::text, method, reference, status, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		p      Payment
		amount string
	)
	err := row.Scan(&p.ID, &p.MemberID, &amount, &p.Method, &p.Reference, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Payment{}, fmt.Errorf("payments: parse amount: %w", err)
	}
	return p, nil
}

func (r *pgRepository) Insert(ctx context.Context, in RecordInput) (Payment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (member_id, amount, method, reference, status)
		VALUES ($1, $2::numeric, $3, $4, 'PENDING')
		RETURNING `+paymentColumns,
		in.MemberID, in.Amount.String(), in.Method, in.Reference)
	return scanPayment(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	return p, err
}

func (r *pgRepository) List(ctx context.Context) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgRepository) SetPaid(ctx context.Context, id int64, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = 'PAID', paid_at = $2, updated_at = now() WHERE id = $1`,
		id, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
