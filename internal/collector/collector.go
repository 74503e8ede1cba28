// Package collector fetches the full video collection of a channel through
// the paginated listing API and enriches each video with duration and
// comment count.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/metrics"
	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/youtube"
)

// placeholderTitle substitutes a listing entry whose snippet carried no
// title. Rare, but the report renderer needs something to link.
const placeholderTitle = "(untitled)"

// VideoAPI is the slice of the upstream client the collector needs.
type VideoAPI interface {
	ListVideoPage(ctx context.Context, channelID, pageToken string) (*youtube.VideoPage, error)
	FetchVideoDetails(ctx context.Context, videoIDs []string) ([]youtube.VideoDetail, error)
}

// QuotaRecorder records upstream quota usage. May be nil on the Collector.
type QuotaRecorder interface {
	Record(ctx context.Context, cost int, operation string) error
}

// Collector paginates a channel's videos, merging each listing page with one
// batched detail call. Collections are memoized by channel id through an
// injected cache.
type Collector struct {
	api      VideoAPI
	cache    cache.Cache
	cacheTTL time.Duration
	quota    QuotaRecorder
	logger   *slog.Logger
}

// New creates a Collector. quota may be nil when usage tracking is not
// configured.
func New(api VideoAPI, memo cache.Cache, cacheTTL time.Duration, quota QuotaRecorder, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		api:      api,
		cache:    memo,
		cacheTTL: cacheTTL,
		quota:    quota,
		logger:   logger,
	}
}

// Collect returns every video of the channel in the platform's listing order
// (newest upload first). Sorting and filtering belong to the presenter, never
// here. Any upstream failure aborts the whole collection; there is no retry
// and no partial result.
func (c *Collector) Collect(ctx context.Context, channelID string) (model.VideoCollection, error) {
	if channelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}

	key := "videos:" + channelID
	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("collector cache read failed", "error", err)
	} else if ok {
		var collection model.VideoCollection
		if err := json.Unmarshal(data, &collection); err == nil {
			metrics.CacheHits.WithLabelValues("collect").Inc()
			return collection, nil
		}
		c.logger.Warn("collector cache entry corrupt, collecting again", "key", key)
	}

	collection := model.VideoCollection{}
	pageToken := ""
	pages := 0

	for {
		page, err := c.api.ListVideoPage(ctx, channelID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list videos page %d: %w", pages+1, err)
		}
		c.recordQuota(ctx, youtube.QuotaCostSearchList, "search_list")
		pages++

		if len(page.Items) == 0 {
			break
		}

		records, err := c.enrichPage(ctx, page.Items)
		if err != nil {
			return nil, fmt.Errorf("enrich page %d: %w", pages, err)
		}
		collection = append(collection, records...)

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.Info("video collection complete",
		"channel_id", channelID,
		"videos", len(collection),
		"pages", pages,
	)

	if data, err := json.Marshal(collection); err == nil {
		if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("collector cache write failed", "error", err)
		}
	}

	return collection, nil
}

// enrichPage issues the single batched detail call for one listing page and
// merges it with the listed titles. The join is by video id and the records
// come out in listing order: the detail response order is not guaranteed to
// match the listing. Ids the detail call did not answer are dropped.
func (c *Collector) enrichPage(ctx context.Context, items []youtube.VideoListItem) ([]model.VideoRecord, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	details, err := c.api.FetchVideoDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.recordQuota(ctx, youtube.QuotaCostVideosList, "videos_list")

	byID := make(map[string]youtube.VideoDetail, len(details))
	for _, detail := range details {
		byID[detail.ID] = detail
	}

	records := make([]model.VideoRecord, 0, len(items))
	for _, item := range items {
		detail, ok := byID[item.ID]
		if !ok {
			continue
		}

		seconds, err := youtube.ParseISODuration(detail.Duration)
		if err != nil {
			c.logger.Warn("unparseable video duration, treating as zero",
				"video_id", detail.ID,
				"duration", detail.Duration,
			)
			seconds = 0
		}

		title := item.Title
		if title == "" {
			title = placeholderTitle
		}

		records = append(records, model.NewVideoRecord(detail.ID, title, seconds, detail.CommentCount))
	}
	return records, nil
}

func (c *Collector) recordQuota(ctx context.Context, cost int, operation string) {
	if c.quota == nil {
		return
	}
	if err := c.quota.Record(ctx, cost, operation); err != nil {
		c.logger.Warn("failed to record quota usage", "operation", operation, "error", err)
	}
}
