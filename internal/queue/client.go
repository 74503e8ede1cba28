package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/commentrank/channel-report-go/internal/report"
)

// Client wraps the asynq client for enqueueing report generation tasks.
type Client struct {
	asynqClient *asynq.Client
	store       *ReportStore
}

// NewClient creates a queue client. store may be nil when job state tracking
// is not wired.
func NewClient(redisAddr string, store *ReportStore) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		store:       store,
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueReport queues a report generation job and returns its report id.
func (c *Client) EnqueueReport(ctx context.Context, url string, filter report.Filter) (string, error) {
	reportID := uuid.NewString()

	payload, err := NewReportTask(reportID, url, filter)
	if err != nil {
		return "", fmt.Errorf("failed to create task payload: %w", err)
	}

	payloadBytes, err := payload.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeReportGenerate, payloadBytes)

	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Printf("[Queue] Enqueued report: report_id=%s, task_id=%s", reportID, info.ID)

	if c.store != nil {
		// The task is already queued; a tracking failure is not fatal.
		if err := c.store.SetPending(ctx, reportID); err != nil {
			log.Printf("[Queue] Warning: failed to record pending report: %v", err)
		}
	}

	return reportID, nil
}
