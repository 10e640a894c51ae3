package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jumuiya-app/jumuiya/internal/shared"
)

type memoryRepo struct {
	balances     map[int64]decimal.Decimal
	transactions map[int64]Transaction
	linkTargets  map[LinkKind]map[int64]bool
	nextID       int64

	failBalanceWrite bool
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		balances:     make(map[int64]decimal.Decimal),
		transactions: make(map[int64]Transaction),
		linkTargets: map[LinkKind]map[int64]bool{
			LinkPayment: {},
			LinkInvoice: {},
			LinkExpense: {},
		},
	}
}

func (r *memoryRepo) addAccount(id int64, balance string) {
	r.balances[id] = decimal.RequireFromString(balance)
}

func (r *memoryRepo) snapshot() (map[int64]decimal.Decimal, map[int64]Transaction) {
	balances := make(map[int64]decimal.Decimal, len(r.balances))
	for k, v := range r.balances {
		balances[k] = v
	}
	transactions := make(map[int64]Transaction, len(r.transactions))
	for k, v := range r.transactions {
		transactions[k] = v
	}
	return balances, transactions
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	balances, transactions := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.balances = balances
		r.transactions = transactions
		return err
	}
	return nil
}

func (r *memoryRepo) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	trx, ok := r.transactions[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return trx, nil
}

func (r *memoryRepo) ListTransactions(ctx context.Context, f Filter) ([]Transaction, error) {
	var out []Transaction
	for _, trx := range r.transactions {
		if f.AccountID != nil && trx.AccountID != *f.AccountID {
			continue
		}
		if f.Type != nil && trx.Type != *f.Type {
			continue
		}
		out = append(out, trx)
	}
	return out, nil
}

func (r *memoryRepo) SummaryRows(ctx context.Context, f SummaryFilter) ([]SummaryRow, error) {
	grouped := make(map[string]*SummaryRow)
	for _, trx := range r.transactions {
		if f.AccountID != nil && trx.AccountID != *f.AccountID {
			continue
		}
		key := trx.Category + "|" + string(trx.Type)
		row, ok := grouped[key]
		if !ok {
			row = &SummaryRow{Category: trx.Category, Type: trx.Type}
			grouped[key] = row
		}
		row.Total = row.Total.Add(trx.Amount)
		row.Count++
	}
	out := make([]SummaryRow, 0, len(grouped))
	for _, row := range grouped {
		out = append(out, *row)
	}
	return out, nil
}

func (tx *memoryTx) AccountBalanceForUpdate(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	balance, ok := tx.repo.balances[accountID]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return balance, nil
}

func (tx *memoryTx) UpdateAccountBalance(ctx context.Context, accountID int64, balance decimal.Decimal) error {
	if tx.repo.failBalanceWrite {
		return errors.New("balance write refused")
	}
	tx.repo.balances[accountID] = balance
	return nil
}

func (tx *memoryTx) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return tx.repo.GetTransaction(ctx, id)
}

func (tx *memoryTx) InsertTransaction(ctx context.Context, in CreateInput) (Transaction, error) {
	tx.repo.nextID++
	trx := Transaction{
		ID:          tx.repo.nextID,
		AccountID:   in.AccountID,
		Amount:      in.Amount,
		Type:        in.Type,
		Date:        in.Date,
		Category:    in.Category,
		Description: in.Description,
		PaymentID:   in.PaymentID,
		InvoiceID:   in.InvoiceID,
		ExpenseID:   in.ExpenseID,
	}
	tx.repo.transactions[trx.ID] = trx
	return trx, nil
}

func (tx *memoryTx) UpdateTransaction(ctx context.Context, trx Transaction) error {
	if _, ok := tx.repo.transactions[trx.ID]; !ok {
		return ErrTransactionNotFound
	}
	tx.repo.transactions[trx.ID] = trx
	return nil
}

func (tx *memoryTx) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := tx.repo.transactions[id]; !ok {
		return ErrTransactionNotFound
	}
	delete(tx.repo.transactions, id)
	return nil
}

func (tx *memoryTx) LinkTargetExists(ctx context.Context, kind LinkKind, id int64) (bool, error) {
	return tx.repo.linkTargets[kind][id], nil
}

func (tx *memoryTx) LinkTaken(ctx context.Context, kind LinkKind, id int64) (bool, error) {
	for _, trx := range tx.repo.transactions {
		switch kind {
		case LinkPayment:
			if trx.PaymentID != nil && *trx.PaymentID == id {
				return true, nil
			}
		case LinkInvoice:
			if trx.InvoiceID != nil && *trx.InvoiceID == id {
				return true, nil
			}
		case LinkExpense:
			if trx.ExpenseID != nil && *trx.ExpenseID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

type capturingPublisher struct {
	events []TransactionEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.events = append(p.events, event.(TransactionEvent))
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func TestCreateIncomeIncreasesBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100.00")
	svc := NewService(repo, nil, nil, nil)

	res, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("25.50"), Type: TypeIncome, Category: "membership-dues",
	})
	require.NoError(t, err)
	require.True(t, res.AccountBalance.Equal(dec("125.50")))
	require.True(t, repo.balances[1].Equal(dec("125.50")))
	require.Len(t, repo.transactions, 1)
}

func TestCreateExpenseDecreasesBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100.00")
	svc := NewService(repo, nil, nil, nil)

	res, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("40"), Type: TypeExpense,
	})
	require.NoError(t, err)
	require.True(t, res.AccountBalance.Equal(dec("60")))
}

func TestCreateAllowsExactZeroBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)

	res, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("100"), Type: TypeExpense,
	})
	require.NoError(t, err)
	require.True(t, res.AccountBalance.IsZero())
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("0"), Type: TypeIncome})
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("-5"), Type: TypeIncome})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("5"), Type: "transfer"})
	require.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("5"), Type: TypeIncome,
		PaymentID: ptr(int64(1)), InvoiceID: ptr(int64(2)),
	})
	require.ErrorIs(t, err, ErrMultipleLinks)

	require.Empty(t, repo.transactions)
	require.True(t, repo.balances[1].Equal(dec("100")))
}

func TestCreateInsufficientFundsLeavesNoTrace(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "30")
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("30.01"), Type: TypeExpense,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.ErrorIs(t, err, shared.ErrInsufficientFunds)
	require.Empty(t, repo.transactions)
	require.True(t, repo.balances[1].Equal(dec("30")))
}

func TestCreateMissingAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		AccountID: 99, Amount: dec("10"), Type: TypeIncome,
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateLinkChecks(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "0")
	repo.linkTargets[LinkPayment][7] = true
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeIncome, PaymentID: ptr(int64(8)),
	})
	require.ErrorIs(t, err, ErrLinkedRecordNotFound)

	_, err = svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeIncome, PaymentID: ptr(int64(7)),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeIncome, PaymentID: ptr(int64(7)),
	})
	require.ErrorIs(t, err, ErrAlreadyLinked)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.True(t, repo.balances[1].Equal(dec("10")))
}

func TestCreateRollsBackOnBalanceWriteFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	repo.failBalanceWrite = true
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeIncome,
	})
	require.Error(t, err)
	require.Empty(t, repo.transactions)
	require.True(t, repo.balances[1].Equal(dec("100")))
}

func TestUpdateAmountRebalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("50"), Type: TypeIncome})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Amount: ptr(dec("80"))})
	require.NoError(t, err)
	require.True(t, updated.AccountBalance.Equal(dec("180")))
	require.True(t, updated.Transaction.Amount.Equal(dec("80")))
}

func TestUpdateTypeFlipRebalances(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("30"), Type: TypeIncome})
	require.NoError(t, err)
	require.True(t, res.AccountBalance.Equal(dec("130")))

	updated, err := svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Type: ptr(TypeExpense)})
	require.NoError(t, err)
	require.True(t, updated.AccountBalance.Equal(dec("70")))
}

func TestUpdateToExactZeroBalance(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("20"), Type: TypeExpense})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Amount: ptr(dec("100"))})
	require.NoError(t, err)
	require.True(t, updated.AccountBalance.IsZero())
}

func TestUpdateInsufficientFundsNoChange(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("20"), Type: TypeExpense})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Amount: ptr(dec("100.01"))})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.True(t, repo.balances[1].Equal(dec("80")))
	require.True(t, repo.transactions[res.Transaction.ID].Amount.Equal(dec("20")))
}

func TestUpdateLinkedTransactionRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "0")
	repo.linkTargets[LinkInvoice][3] = true
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeIncome, InvoiceID: ptr(int64(3)),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Amount: ptr(dec("20"))})
	require.ErrorIs(t, err, ErrTransactionLinked)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateMissingTransaction(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Update(context.Background(), UpdateInput{ID: 42, Amount: ptr(dec("1"))})
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestRemoveReversesEffect(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("40"), Type: TypeExpense})
	require.NoError(t, err)
	require.True(t, res.AccountBalance.Equal(dec("60")))

	require.NoError(t, svc.Remove(ctx, res.Transaction.ID))
	require.True(t, repo.balances[1].Equal(dec("100")))
	require.Empty(t, repo.transactions)
}

func TestRemoveIncomeRequiresCoverage(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "0")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("50"), Type: TypeIncome})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("30"), Type: TypeExpense})
	require.NoError(t, err)

	err = svc.Remove(ctx, res.Transaction.ID)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.True(t, repo.balances[1].Equal(dec("20")))
	require.Len(t, repo.transactions, 2)
}

func TestRemoveLinkedTransactionRejected(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	repo.linkTargets[LinkExpense][5] = true
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeExpense, ExpenseID: ptr(int64(5)),
	})
	require.NoError(t, err)

	err = svc.Remove(ctx, res.Transaction.ID)
	require.ErrorIs(t, err, ErrTransactionLinked)
}

func TestRemoveOrphanedTransaction(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("10"), Type: TypeIncome})
	require.NoError(t, err)

	delete(repo.balances, 1)

	require.NoError(t, svc.Remove(ctx, res.Transaction.ID))
	require.Empty(t, repo.transactions)
}

func TestBalanceMatchesNetOfTransactions(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "250")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("120"), Type: TypeIncome})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("45.25"), Type: TypeExpense})
	require.NoError(t, err)
	_, err = svc.Update(ctx, UpdateInput{ID: first.Transaction.ID, Amount: ptr(dec("90"))})
	require.NoError(t, err)

	net := decimal.Zero
	for _, trx := range repo.transactions {
		net = net.Add(trx.Effect())
	}
	require.True(t, repo.balances[1].Equal(dec("250").Add(net)))
}

func TestEventsPublishedAfterWrites(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "100")
	pub := &capturingPublisher{}
	svc := NewService(repo, nil, pub, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("10"), Type: TypeIncome})
	require.NoError(t, err)
	_, err = svc.Update(ctx, UpdateInput{ID: res.Transaction.ID, Amount: ptr(dec("15"))})
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, res.Transaction.ID))

	require.Len(t, pub.events, 3)
	require.Equal(t, EventTransactionApplied, pub.events[0].Kind)
	require.Equal(t, EventTransactionAmended, pub.events[1].Kind)
	require.Equal(t, EventTransactionReversed, pub.events[2].Kind)
	require.NotEmpty(t, pub.events[0].EventID)
}

func TestNoEventOnFailedWrite(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "5")
	pub := &capturingPublisher{}
	svc := NewService(repo, nil, pub, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		AccountID: 1, Amount: dec("10"), Type: TypeExpense,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Empty(t, pub.events)
}
