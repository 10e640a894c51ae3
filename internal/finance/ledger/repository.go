package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jumuiya-app/jumuiya/internal/platform/db"
)

// Repository defines ledger data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context, f Filter) ([]Transaction, error)
	SummaryRows(ctx context.Context, f SummaryFilter) ([]SummaryRow, error)
}

// TxRepository defines the operations available inside a transaction scope.
// AccountBalanceForUpdate and GetTransactionForUpdate take row locks so the
// read-check-write sequence is serialized per account.
type TxRepository interface {
	AccountBalanceForUpdate(ctx context.Context, accountID int64) (decimal.Decimal, error)
	UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error

	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	InsertTransaction(ctx context.Context, in CreateInput) (Transaction, error)
	UpdateTransaction(ctx context.Context, trx Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	LinkTargetExists(ctx context.Context, kind LinkKind, id int64) (bool, error)
	LinkTaken(ctx context.Context, kind LinkKind, id int64) (bool, error)
}

// SummaryRow is one (category, type) aggregate produced by the storage layer.
type SummaryRow struct {
	Category string
	Type     TransactionType
	Total    decimal.Decimal
	Count    int64
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

// WithTx executes fn within a single database transaction. Commit happens only
// when fn returns nil; every other exit path rolls back.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

const transactionColumns = `id, account_id, amount::text, type, date, category, description, payment_id, invoice_id, expense_id, created_at, updated_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		t      Transaction
		amount string
	)
	err := row.Scan(&t.ID, &t.AccountID, &amount, &t.Type, &t.Date, &t.Category, &t.Description,
		&t.PaymentID, &t.InvoiceID, &t.ExpenseID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("ledger: parse amount: %w", err)
	}
	return t, nil
}

func (r *pgRepository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

func (r *pgRepository) ListTransactions(ctx context.Context, f Filter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.AccountID != nil {
		where = append(where, "account_id = "+arg(*f.AccountID))
	}
	if f.Type != nil {
		where = append(where, "type = "+arg(string(*f.Type)))
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if !f.From.IsZero() {
		where = append(where, "date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= "+arg(f.To))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	query += fmt.Sprintf(" ORDER BY date DESC, id DESC LIMIT %s OFFSET %s", arg(page.Limit), arg(page.Offset))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgRepository) SummaryRows(ctx context.Context, f SummaryFilter) ([]SummaryRow, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.AccountID != nil {
		where = append(where, "account_id = "+arg(*f.AccountID))
	}
	if !f.From.IsZero() {
		where = append(where, "date >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date <= "+arg(f.To))
	}

	query := `SELECT COALESCE(category, ''), type, SUM(amount)::text, COUNT(*) FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY 1, 2"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var (
			row   SummaryRow
			total string
		)
		if err := rows.Scan(&row.Category, &row.Type, &total, &row.Count); err != nil {
			return nil, err
		}
		row.Total, err = decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("ledger: parse total: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type pgTxRepository struct {
	tx pgx.Tx
}

func (r *pgTxRepository) AccountBalanceForUpdate(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var raw string
	err := r.tx.QueryRow(ctx, `SELECT balance::text FROM financial_accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger: parse balance: %w", err)
	}
	return balance, nil
}

func (r *pgTxRepository) UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	tag, err := r.tx.Exec(ctx, `UPDATE financial_accounts SET balance = $2, updated_at = now() WHERE id = $1`,
		accountID, balance.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *pgTxRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	return t, err
}

func (r *pgTxRepository) InsertTransaction(ctx context.Context, in CreateInput) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `
		INSERT INTO transactions (account_id, amount, type, date, category, description, payment_id, invoice_id, expense_id)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		in.AccountID, in.Amount.String(), string(in.Type), in.Date, in.Category, in.Description,
		in.PaymentID, in.InvoiceID, in.ExpenseID)
	t, err := scanTransaction(row)
	if isUniqueViolation(err) {
		// Partial unique indexes on payment_id/invoice_id/expense_id back up
		// the pre-insert link check under concurrency.
		return Transaction{}, ErrAlreadyLinked
	}
	return t, err
}

func (r *pgTxRepository) UpdateTransaction(ctx context.Context, trx Transaction) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE transactions
		SET amount = $2::numeric, type = $3, date = $4, category = $5, description = $6, updated_at = now()
		WHERE id = $1`,
		trx.ID, trx.Amount.String(), string(trx.Type), trx.Date, trx.Category, trx.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *pgTxRepository) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func linkTable(kind LinkKind) (string, error) {
	switch kind {
	case LinkPayment:
		return "payments", nil
	case LinkInvoice:
		return "invoices", nil
	case LinkExpense:
		return "expenses", nil
	default:
		return "", fmt.Errorf("ledger: unknown link kind %q", kind)
	}
}

func (r *pgTxRepository) LinkTargetExists(ctx context.Context, kind LinkKind, id int64) (bool, error) {
	table, err := linkTable(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	err = r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *pgTxRepository) LinkTaken(ctx context.Context, kind LinkKind, id int64) (bool, error) {
	var column string
	switch kind {
	case LinkPayment:
		column = "payment_id"
	case LinkInvoice:
		column = "invoice_id"
	case LinkExpense:
		column = "expense_id"
	default:
		return false, fmt.Errorf("ledger: unknown link kind %q", kind)
	}
	var taken bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transactions WHERE `+column+` = $1)`, id).Scan(&taken)
	return taken, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
