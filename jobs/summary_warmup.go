package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jumuiya-app/jumuiya/internal/finance/ledger"
)

// SummaryWarmer prebuilds monthly summaries so the first dashboard request
// after an idle period hits the cache.
type SummaryWarmer struct {
	service *ledger.Service
	logger  *slog.Logger
}

// NewSummaryWarmer constructs the warmer.
func NewSummaryWarmer(service *ledger.Service, logger *slog.Logger) *SummaryWarmer {
	return &SummaryWarmer{service: service, logger: logger}
}

// Handle processes TaskSummaryWarmup tasks.
func (w *SummaryWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SummaryWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("summary warmup payload: %w", err)
		}
	}

	month := time.Now().UTC()
	if payload.Month != "" {
		parsed, err := time.Parse("2006-01", payload.Month)
		if err != nil {
			return fmt.Errorf("summary warmup month %q: %w", payload.Month, err)
		}
		month = parsed
	}
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	summary, err := w.service.Summarize(ctx, ledger.SummaryFilter{From: from, To: to})
	if err != nil {
		return err
	}
	w.logger.Info("summary warmup complete",
		slog.String("month", from.Format("2006-01")),
		slog.Int64("transactions", summary.TransactionCount))
	return nil
}
