package ledger

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newCachedService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, NewSummaryCache(client, time.Minute), nil, nil)
}

func TestSummarizeFoldsRows(t *testing.T) {
	repo := newMemoryRepo()
	repo.addAccount(1, "0")
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("100"), Type: TypeIncome, Category: "membership-dues"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("50"), Type: TypeIncome, Category: "membership-dues"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("30"), Type: TypeExpense, Category: "venue"})
	require.NoError(t, err)

	sum, err := svc.Summarize(ctx, SummaryFilter{})
	require.NoError(t, err)
	require.True(t, sum.TotalIncome.Equal(dec("150")))
	require.True(t, sum.TotalExpense.Equal(dec("30")))
	require.True(t, sum.NetBalance.Equal(dec("120")))
	require.EqualValues(t, 3, sum.TransactionCount)

	dues := sum.Categories["membership-dues"]
	require.True(t, dues.Income.Equal(dec("150")))
	require.True(t, dues.Net.Equal(dec("150")))
	venue := sum.Categories["venue"]
	require.True(t, venue.Expense.Equal(dec("30")))
	require.True(t, venue.Net.Equal(dec("-30")))
}

func TestSummarizeEmptyLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	sum, err := svc.Summarize(context.Background(), SummaryFilter{})
	require.NoError(t, err)
	require.True(t, sum.TotalIncome.IsZero())
	require.True(t, sum.NetBalance.IsZero())
	require.NotNil(t, sum.Categories)
	require.Empty(t, sum.Categories)
}

type countingRepo struct {
	*memoryRepo
	summaryCalls int
}

func (r *countingRepo) SummaryRows(ctx context.Context, f SummaryFilter) ([]SummaryRow, error) {
	r.summaryCalls++
	return r.memoryRepo.SummaryRows(ctx, f)
}

func TestSummarizeServesFromCache(t *testing.T) {
	repo := &countingRepo{memoryRepo: newMemoryRepo()}
	repo.addAccount(1, "0")
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("10"), Type: TypeIncome})
	require.NoError(t, err)

	first, err := svc.Summarize(ctx, SummaryFilter{})
	require.NoError(t, err)
	second, err := svc.Summarize(ctx, SummaryFilter{})
	require.NoError(t, err)
	require.True(t, first.TotalIncome.Equal(second.TotalIncome))
	require.Equal(t, 1, repo.summaryCalls)
}

func TestWriteInvalidatesCachedSummary(t *testing.T) {
	repo := &countingRepo{memoryRepo: newMemoryRepo()}
	repo.addAccount(1, "0")
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("10"), Type: TypeIncome})
	require.NoError(t, err)

	stale, err := svc.Summarize(ctx, SummaryFilter{})
	require.NoError(t, err)
	require.True(t, stale.TotalIncome.Equal(dec("10")))

	_, err = svc.Create(ctx, CreateInput{AccountID: 1, Amount: dec("5"), Type: TypeIncome})
	require.NoError(t, err)

	fresh, err := svc.Summarize(ctx, SummaryFilter{})
	require.NoError(t, err)
	require.True(t, fresh.TotalIncome.Equal(dec("15")))
	require.Equal(t, 2, repo.summaryCalls)
}
