package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BalanceIntegrityChecker verifies that every account balance equals its
// opening balance plus the net effect of applied transactions.
type BalanceIntegrityChecker struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewBalanceIntegrityChecker constructs the checker.
func NewBalanceIntegrityChecker(pool *pgxpool.Pool, logger *slog.Logger) *BalanceIntegrityChecker {
	return &BalanceIntegrityChecker{pool: pool, logger: logger}
}

// Handle processes TaskBalanceIntegrity tasks.
func (c *BalanceIntegrityChecker) Handle(ctx context.Context, t *asynq.Task) error {
	drifted, err := c.Run(ctx)
	if err != nil {
		return err
	}
	if drifted > 0 {
		c.logger.Warn("balance integrity scan found drift", slog.Int("accounts", drifted))
	}
	return nil
}

// Run scans all accounts and returns the number with drifted balances.
// Drift is only logged; correction is a manual operation.
func (c *BalanceIntegrityChecker) Run(ctx context.Context) (int, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT a.id, a.balance::text, a.opening_balance::text,
		       COALESCE(SUM(CASE WHEN t.type = 'income' THEN t.amount ELSE -t.amount END), 0)::text
		FROM financial_accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id, a.balance, a.opening_balance
		ORDER BY a.id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var (
			id                    int64
			balance, opening, net string
		)
		if err := rows.Scan(&id, &balance, &opening, &net); err != nil {
			return drifted, err
		}
		current, err := decimal.NewFromString(balance)
		if err != nil {
			return drifted, err
		}
		openingDec, err := decimal.NewFromString(opening)
		if err != nil {
			return drifted, err
		}
		netDec, err := decimal.NewFromString(net)
		if err != nil {
			return drifted, err
		}
		expected := openingDec.Add(netDec)
		if !current.Equal(expected) {
			drifted++
			c.logger.Error("account balance drift",
				slog.Int64("account_id", id),
				slog.String("balance", current.String()),
				slog.String("expected", expected.String()))
		}
	}
	return drifted, rows.Err()
}
