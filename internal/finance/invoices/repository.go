package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository defines invoice data access.
type Repository interface {
	Insert(ctx context.Context, in CreateInput) (Invoice, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	SetStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error
	NextNumber(ctx context.Context) (string, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const invoiceColumns = `id, number, member_id, amount::text, due_at, status, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv    Invoice
		amount string
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.MemberID, &amount, &inv.DueAt, &inv.Status, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoices: parse amount: %w", err)
	}
	return inv, nil
}

func (r *pgRepository) Insert(ctx context.Context, in CreateInput) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (number, member_id, amount, due_at, status)
		VALUES ($1, $2, $3::numeric, $4, 'DRAFT')
		RETURNING `+invoiceColumns,
		in.Number, in.MemberID, in.Amount.String(), in.DueAt)
	return scanInvoice(row)
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, err
}

func (r *pgRepository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *pgRepository) SetStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET status = $2, paid_at = COALESCE($3, paid_at), updated_at = now() WHERE id = $1`,
		id, string(status), paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *pgRepository) NextNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%05d", n), nil
}
