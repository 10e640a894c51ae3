// Package jobs defines background tasks and the Asynq worker runtime.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalanceIntegrity recomputes account balances from transaction rows.
	TaskBalanceIntegrity = "finance:balance_integrity"
	// TaskSummaryWarmup prebuilds the current-month summary into the cache.
	TaskSummaryWarmup = "finance:summary_warmup"
)

// SummaryWarmupPayload scopes the warmup window.
type SummaryWarmupPayload struct {
	Month string `json:"month"` // "2006-01"; empty means current month
}

// NewBalanceIntegrityTask constructs the integrity scan task.
func NewBalanceIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskBalanceIntegrity, nil)
}

// NewSummaryWarmupTask constructs a warmup task.
func NewSummaryWarmupTask(payload SummaryWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryWarmup, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueBalanceIntegrity enqueues an on-demand integrity scan.
func (c *Client) EnqueueBalanceIntegrity(ctx context.Context) (*asynq.TaskInfo, error) {
	return c.client.EnqueueContext(ctx, NewBalanceIntegrityTask(),
		asynq.Queue(QueueDefault), asynq.Unique(10*time.Minute))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
