// Package youtube wraps the YouTube Data API v3 calls the report pipeline
// needs: channel lookup, channel search, paginated video listing, and batched
// video details.
package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/commentrank/channel-report-go/internal/metrics"
)

// ErrNoResults is returned when an upstream lookup or search yields zero items.
var ErrNoResults = errors.New("no results")

// Quota costs per operation, per the YouTube Data API v3 pricing table.
const (
	QuotaCostChannelsList = 1
	QuotaCostSearchList   = 100
	QuotaCostVideosList   = 1
)

// listPageSize is the maximum page size search.list accepts.
const listPageSize = 50

// VideoListItem is one entry of a listing page: the id plus the display title
// captured for the later join with the detail response.
type VideoListItem struct {
	ID    string
	Title string
}

// VideoPage is one page of a channel's video listing.
type VideoPage struct {
	Items         []VideoListItem
	NextPageToken string
}

// VideoDetail is the contentDetails/statistics slice of one video.
// CommentCount is zero when the statistic is absent (comments disabled).
type VideoDetail struct {
	ID           string
	Duration     string // ISO 8601, e.g. "PT4M13S"
	CommentCount int64
}

// Client wraps the YouTube Data API v3 service.
type Client struct {
	service *youtube.Service
}

// NewClient creates a Client authenticated with an API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// ChannelIDByUsername resolves a legacy /user/ username to a channel id with
// an exact channels.list lookup. Returns ErrNoResults when no channel owns
// the username.
func (c *Client) ChannelIDByUsername(ctx context.Context, username string) (string, error) {
	metrics.UpstreamCalls.WithLabelValues("channels_list").Inc()

	resp, err := c.service.Channels.List([]string{"id"}).
		ForUsername(username).
		Context(ctx).
		Do()
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("channels_list").Inc()
		return "", fmt.Errorf("channels.list forUsername=%s: %w", username, err)
	}

	if len(resp.Items) == 0 {
		return "", ErrNoResults
	}
	return resp.Items[0].Id, nil
}

// SearchChannel runs a best-effort channel search and returns the top
// result's channel id and snippet title. The match is fuzzy: the highest
// ranked channel for the query text may be unrelated to the query.
func (c *Client) SearchChannel(ctx context.Context, query string) (id, title string, err error) {
	metrics.UpstreamCalls.WithLabelValues("search_list").Inc()

	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("search_list").Inc()
		return "", "", fmt.Errorf("search.list q=%s: %w", query, err)
	}

	if len(resp.Items) == 0 {
		return "", "", ErrNoResults
	}

	item := resp.Items[0]
	if item.Snippet != nil {
		title = item.Snippet.Title
		id = item.Snippet.ChannelId
	}
	if id == "" && item.Id != nil {
		id = item.Id.ChannelId
	}
	if id == "" {
		return "", "", ErrNoResults
	}
	return id, title, nil
}

// ListVideoPage fetches one page of up to 50 videos of a channel, newest
// first. An empty pageToken requests the first page.
func (c *Client) ListVideoPage(ctx context.Context, channelID, pageToken string) (*VideoPage, error) {
	metrics.UpstreamCalls.WithLabelValues("search_list").Inc()

	call := c.service.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		MaxResults(listPageSize).
		Order("date").
		Type("video").
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("search_list").Inc()
		return nil, fmt.Errorf("search.list channelId=%s: %w", channelID, err)
	}

	page := &VideoPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		listItem := VideoListItem{ID: item.Id.VideoId}
		if item.Snippet != nil {
			listItem.Title = item.Snippet.Title
		}
		page.Items = append(page.Items, listItem)
	}
	return page, nil
}

// FetchVideoDetails batch-requests contentDetails and statistics for up to
// 50 video ids in a single call. Result order is not guaranteed to match the
// input order.
func (c *Client) FetchVideoDetails(ctx context.Context, videoIDs []string) ([]VideoDetail, error) {
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("no video IDs provided")
	}
	if len(videoIDs) > listPageSize {
		return nil, fmt.Errorf("too many video IDs (max %d, got %d)", listPageSize, len(videoIDs))
	}

	metrics.UpstreamCalls.WithLabelValues("videos_list").Inc()

	resp, err := c.service.Videos.List([]string{"contentDetails", "statistics"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("videos_list").Inc()
		return nil, fmt.Errorf("videos.list: %w", err)
	}

	details := make([]VideoDetail, 0, len(resp.Items))
	for _, item := range resp.Items {
		detail := VideoDetail{ID: item.Id}
		if item.ContentDetails != nil {
			detail.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			detail.CommentCount = int64(item.Statistics.CommentCount)
		}
		details = append(details, detail)
	}
	return details, nil
}
