// Package repository implements the persistence layer on top of pgx.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commentrank/channel-report-go/internal/db"
	"github.com/commentrank/channel-report-go/internal/quota"
)

// DailyQuotaUsage is one row of the api_quota_usage ledger.
type DailyQuotaUsage struct {
	Date              time.Time
	QuotaUsed         int
	OperationsCount   int
	SearchListCalls   int
	ChannelsListCalls int
	VideosListCalls   int
	OtherCalls        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// QuotaRepository persists per-day API quota spend. It satisfies
// quota.Tracker.
type QuotaRepository struct {
	pool *pgxpool.Pool
}

// NewQuotaRepository creates a QuotaRepository.
func NewQuotaRepository(pool *pgxpool.Pool) *QuotaRepository {
	return &QuotaRepository{pool: pool}
}

var _ quota.Tracker = (*QuotaRepository)(nil)

// Today returns today's accumulated usage. A day with no recorded calls yet
// reads as zero usage, not as an error.
func (r *QuotaRepository) Today(ctx context.Context) (*quota.Usage, error) {
	query := `
		SELECT quota_used, operations_count
		FROM api_quota_usage
		WHERE date = CURRENT_DATE
	`

	usage := &quota.Usage{}
	err := r.pool.QueryRow(ctx, query).Scan(&usage.QuotaUsed, &usage.OperationsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return &quota.Usage{}, nil
	}
	if err != nil {
		return nil, db.WrapError(err, "get todays quota")
	}

	return usage, nil
}

// Add upserts today's row, incrementing the total spend and the per-operation
// call counter.
func (r *QuotaRepository) Add(ctx context.Context, cost int, operation string) error {
	query := `
		INSERT INTO api_quota_usage (
			date, quota_used, operations_count,
			search_list_calls, channels_list_calls, videos_list_calls, other_calls
		)
		VALUES (
			CURRENT_DATE, $1, 1,
			CASE WHEN $2 = 'search_list'   THEN 1 ELSE 0 END,
			CASE WHEN $2 = 'channels_list' THEN 1 ELSE 0 END,
			CASE WHEN $2 = 'videos_list'   THEN 1 ELSE 0 END,
			CASE WHEN $2 NOT IN ('search_list', 'channels_list', 'videos_list') THEN 1 ELSE 0 END
		)
		ON CONFLICT (date) DO UPDATE SET
			quota_used          = api_quota_usage.quota_used + EXCLUDED.quota_used,
			operations_count    = api_quota_usage.operations_count + 1,
			search_list_calls   = api_quota_usage.search_list_calls + EXCLUDED.search_list_calls,
			channels_list_calls = api_quota_usage.channels_list_calls + EXCLUDED.channels_list_calls,
			videos_list_calls   = api_quota_usage.videos_list_calls + EXCLUDED.videos_list_calls,
			other_calls         = api_quota_usage.other_calls + EXCLUDED.other_calls,
			updated_at          = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, cost, operation); err != nil {
		return db.WrapError(err, "increment quota")
	}
	return nil
}

// History returns the most recent days of usage, newest first.
func (r *QuotaRepository) History(ctx context.Context, days int) ([]*DailyQuotaUsage, error) {
	if days <= 0 {
		days = 7
	}

	query := `
		SELECT date, quota_used, operations_count,
		       search_list_calls, channels_list_calls, videos_list_calls, other_calls,
		       created_at, updated_at
		FROM api_quota_usage
		WHERE date >= CURRENT_DATE - INTERVAL '1 day' * $1
		ORDER BY date DESC
	`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, db.WrapError(err, "get quota history")
	}
	defer rows.Close()

	var history []*DailyQuotaUsage
	for rows.Next() {
		usage := &DailyQuotaUsage{}
		err := rows.Scan(
			&usage.Date,
			&usage.QuotaUsed,
			&usage.OperationsCount,
			&usage.SearchListCalls,
			&usage.ChannelsListCalls,
			&usage.VideosListCalls,
			&usage.OtherCalls,
			&usage.CreatedAt,
			&usage.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan quota history")
		}
		history = append(history, usage)
	}

	return history, rows.Err()
}
