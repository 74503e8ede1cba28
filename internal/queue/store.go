package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/commentrank/channel-report-go/internal/report"
)

// ErrUnknownReport is returned when no report exists under an id, either
// because it was never enqueued or because its entry expired.
var ErrUnknownReport = errors.New("unknown report id")

// Report job states.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ReportStatus is the stored state of one queued report.
type ReportStatus struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  string         `json:"error,omitempty"`
	Report *report.Report `json:"report,omitempty"`
}

// ReportStore hands finished reports from the worker back to the API through
// Redis. Entries expire after the configured TTL; this is a bounded hand-off,
// not a result archive.
type ReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportStore creates a ReportStore. A zero ttl defaults to one hour.
func NewReportStore(client *redis.Client, ttl time.Duration) *ReportStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReportStore{client: client, ttl: ttl}
}

func storeKey(reportID string) string {
	return "report:" + reportID
}

func (s *ReportStore) set(ctx context.Context, status *ReportStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal report status: %w", err)
	}
	if err := s.client.Set(ctx, storeKey(status.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store report status: %w", err)
	}
	return nil
}

// SetPending marks a freshly enqueued report.
func (s *ReportStore) SetPending(ctx context.Context, reportID string) error {
	return s.set(ctx, &ReportStatus{ID: reportID, Status: StatusPending})
}

// SetCompleted stores the finished report.
func (s *ReportStore) SetCompleted(ctx context.Context, r *report.Report) error {
	return s.set(ctx, &ReportStatus{ID: r.ID, Status: StatusCompleted, Report: r})
}

// SetFailed records a terminal failure message for the report.
func (s *ReportStore) SetFailed(ctx context.Context, reportID, message string) error {
	return s.set(ctx, &ReportStatus{ID: reportID, Status: StatusFailed, Error: message})
}

// Get fetches the current state of a report, ErrUnknownReport if absent.
func (s *ReportStore) Get(ctx context.Context, reportID string) (*ReportStatus, error) {
	data, err := s.client.Get(ctx, storeKey(reportID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUnknownReport
	}
	if err != nil {
		return nil, fmt.Errorf("fetch report status: %w", err)
	}

	var status ReportStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decode report status: %w", err)
	}
	return &status, nil
}
