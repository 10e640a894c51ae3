package invoices

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
)

type memoryRepo struct {
	invoices map[int64]Invoice
	nextID   int64
	nextSeq  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[int64]Invoice)}
}

func (r *memoryRepo) Insert(ctx context.Context, in CreateInput) (Invoice, error) {
	r.nextID++
	inv := Invoice{
		ID:       r.nextID,
		Number:   in.Number,
		MemberID: in.MemberID,
		Amount:   in.Amount,
		DueAt:    in.DueAt,
		Status:   StatusDraft,
	}
	r.invoices[inv.ID] = inv
	return inv, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return Invoice{}, ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Invoice, error) {
	out := make([]Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (r *memoryRepo) SetStatus(ctx context.Context, id int64, status InvoiceStatus, paidAt *time.Time) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = paidAt
	}
	r.invoices[id] = inv
	return nil
}

func (r *memoryRepo) NextNumber(ctx context.Context) (string, error) {
	r.nextSeq++
	return fmt.Sprintf("INV-%05d", r.nextSeq), nil
}

type stubPoster struct {
	calls []ledger.CreateInput
	err   error
}

func (p *stubPoster) Create(ctx context.Context, in ledger.CreateInput) (ledger.Result, error) {
	p.calls = append(p.calls, in)
	if p.err != nil {
		return ledger.Result{}, p.err
	}
	return ledger.Result{}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateGeneratesNumberAndDueDate(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubPoster{}, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("200")})
	require.NoError(t, err)
	require.Equal(t, "INV-00001", inv.Number)
	require.Equal(t, StatusDraft, inv.Status)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 30), inv.DueAt, time.Minute)

	second, err := svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("50"), Number: "INV-CUSTOM"})
	require.NoError(t, err)
	require.Equal(t, "INV-CUSTOM", second.Number)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubPoster{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Amount: dec("10")})
	require.ErrorIs(t, err, ErrMemberRequired)

	_, err = svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("-1")})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSendOnlyFromDraft(t *testing.T) {
	svc := NewService(newMemoryRepo(), &stubPoster{}, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("10")})
	require.NoError(t, err)

	sent, err := svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)

	_, err = svc.Send(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestVoidRules(t *testing.T) {
	poster := &stubPoster{}
	svc := NewService(newMemoryRepo(), poster, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("10")})
	require.NoError(t, err)

	voided, err := svc.Void(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	_, err = svc.Void(ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)

	paid, err := svc.Create(ctx, CreateInput{MemberID: 1, Amount: dec("10")})
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, paid.ID, 1)
	require.NoError(t, err)
	_, err = svc.Void(ctx, paid.ID)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestMarkPaidPostsSettlement(t *testing.T) {
	poster := &stubPoster{}
	svc := NewService(newMemoryRepo(), poster, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 4, Amount: dec("150")})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, inv.ID, 2)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	require.Len(t, poster.calls, 1)
	call := poster.calls[0]
	require.Equal(t, ledger.TypeIncome, call.Type)
	require.Equal(t, "invoice-settlement", call.Category)
	require.EqualValues(t, 2, call.AccountID)
	require.NotNil(t, call.InvoiceID)
	require.Equal(t, inv.ID, *call.InvoiceID)

	_, err = svc.MarkPaid(ctx, inv.ID, 2)
	require.NoError(t, err)
	require.Len(t, poster.calls, 1)
}

func TestMarkPaidConflictIsNoOp(t *testing.T) {
	poster := &stubPoster{err: ledger.ErrAlreadyLinked}
	svc := NewService(newMemoryRepo(), poster, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 4, Amount: dec("150")})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, inv.ID, 2)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
}

func TestMarkPaidVoidInvoiceRejected(t *testing.T) {
	poster := &stubPoster{}
	svc := NewService(newMemoryRepo(), poster, nil)
	ctx := context.Background()

	inv, err := svc.Create(ctx, CreateInput{MemberID: 4, Amount: dec("150")})
	require.NoError(t, err)
	_, err = svc.Void(ctx, inv.ID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, inv.ID, 2)
	require.ErrorIs(t, err, ErrInvalidStatus)
	require.Empty(t, poster.calls)
}
