package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const summaryVersionKey = "finance:summary:version"

var summaryGroup singleflight.Group

// SummaryCache wraps Redis based caching with versioning controls. A version
// bump on every ledger write invalidates all cached summaries at once.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache instantiates the cache helper.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *SummaryCache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, summaryVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, summaryVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *SummaryCache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *SummaryCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates all cached summaries by incrementing the version.
func (c *SummaryCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, summaryVersionKey).Err()
}

func summaryKeyParts(f SummaryFilter) []string {
	account := "all"
	if f.AccountID != nil {
		account = strconv.FormatInt(*f.AccountID, 10)
	}
	from, to := "", ""
	if !f.From.IsZero() {
		from = f.From.Format("2006-01-02")
	}
	if !f.To.IsZero() {
		to = f.To.Format("2006-01-02")
	}
	return []string{"finance", "summary", account, from, to}
}

// Summarize aggregates the filtered transaction set. Results are cached when
// a cache is configured; concurrent rebuilds of the same key are coalesced.
func (s *Service) Summarize(ctx context.Context, f SummaryFilter) (Summary, error) {
	if s.cache == nil {
		return s.buildSummary(ctx, f)
	}
	key, err := s.cache.BuildKey(ctx, summaryKeyParts(f)...)
	if err != nil {
		s.logger.Warn("summary cache key failed", slog.Any("error", err))
		return s.buildSummary(ctx, f)
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		ch := summaryGroup.DoChan(key, func() (any, error) {
			return s.buildSummary(ctx, f)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			return res.Val, res.Err
		}
	})
	if err != nil {
		return Summary{}, err
	}
	if out.Categories == nil {
		out.Categories = map[string]CategoryTotals{}
	}
	return out, nil
}

// buildSummary folds storage aggregates into the summary shape.
func (s *Service) buildSummary(ctx context.Context, f SummaryFilter) (Summary, error) {
	rows, err := s.repo.SummaryRows(ctx, f)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{Categories: map[string]CategoryTotals{}}
	for _, row := range rows {
		cat := out.Categories[row.Category]
		switch row.Type {
		case TypeExpense:
			out.TotalExpense = out.TotalExpense.Add(row.Total)
			cat.Expense = cat.Expense.Add(row.Total)
		default:
			out.TotalIncome = out.TotalIncome.Add(row.Total)
			cat.Income = cat.Income.Add(row.Total)
		}
		cat.Net = cat.Income.Sub(cat.Expense)
		out.Categories[row.Category] = cat
		out.TransactionCount += row.Count
	}
	out.NetBalance = out.TotalIncome.Sub(out.TotalExpense)
	return out, nil
}
