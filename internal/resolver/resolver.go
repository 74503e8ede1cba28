// Package resolver maps user-supplied YouTube channel URLs to channel ids.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/metrics"
	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/youtube"
)

// ErrNotFound is returned when a URL yields no channel candidate: an empty
// path segment, or an upstream lookup/search with zero results. Transport and
// API failures are NOT mapped to ErrNotFound; they propagate wrapped so
// callers can tell a dead upstream from a missing channel.
var ErrNotFound = errors.New("channel not found")

// ChannelAPI is the slice of the upstream client the resolver needs.
type ChannelAPI interface {
	// ChannelIDByUsername resolves a legacy username, youtube.ErrNoResults
	// when no channel owns it.
	ChannelIDByUsername(ctx context.Context, username string) (string, error)

	// SearchChannel returns the top channel result for a query,
	// youtube.ErrNoResults on an empty result set.
	SearchChannel(ctx context.Context, query string) (id, title string, err error)
}

// QuotaRecorder records upstream quota usage. May be nil on the Resolver.
type QuotaRecorder interface {
	Record(ctx context.Context, cost int, operation string) error
}

// Resolver resolves channel URLs, memoizing outcomes through an injected
// cache so identical inputs never repeat a network call.
type Resolver struct {
	api      ChannelAPI
	cache    cache.Cache
	cacheTTL time.Duration
	quota    QuotaRecorder
	logger   *slog.Logger
}

// New creates a Resolver. quota may be nil when usage tracking is not
// configured.
func New(api ChannelAPI, memo cache.Cache, cacheTTL time.Duration, quota QuotaRecorder, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		api:      api,
		cache:    memo,
		cacheTTL: cacheTTL,
		quota:    quota,
		logger:   logger,
	}
}

// memoEntry is the cached outcome of one resolution. Not-found outcomes are
// memoized alongside successes; failures are not.
type memoEntry struct {
	NotFound   bool              `json:"not_found"`
	Resolution *model.Resolution `json:"resolution,omitempty"`
}

// Resolve maps a channel URL to a Resolution.
//
// Dispatch is by first-match substring containment, in fixed priority order:
// /channel/ (the segment is the id, no network), /user/ (exact username
// lookup), /c/ (fuzzy search), /@ (fuzzy search), then a fallback search on
// the last path segment. Once a branch is entered there is no fallthrough.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*model.Resolution, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrNotFound)
	}

	key := "resolve:" + rawURL
	if data, ok, err := r.cache.Get(ctx, key); err != nil {
		r.logger.Warn("resolver cache read failed", "error", err)
	} else if ok {
		var entry memoEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			metrics.CacheHits.WithLabelValues("resolve").Inc()
			if entry.NotFound {
				return nil, ErrNotFound
			}
			return entry.Resolution, nil
		}
		r.logger.Warn("resolver cache entry corrupt, resolving again", "key", key)
	}

	res, err := r.dispatch(ctx, rawURL)
	switch {
	case err == nil:
		r.memoize(ctx, key, memoEntry{Resolution: res})
		r.logger.Info("channel resolved",
			"url", rawURL,
			"channel_id", res.ChannelID,
			"method", res.Method,
		)
		return res, nil
	case errors.Is(err, ErrNotFound):
		r.memoize(ctx, key, memoEntry{NotFound: true})
		return nil, err
	default:
		return nil, err
	}
}

func (r *Resolver) dispatch(ctx context.Context, rawURL string) (*model.Resolution, error) {
	switch {
	case strings.Contains(rawURL, "/channel/"):
		id := segmentAfter(rawURL, "/channel/")
		if id == "" {
			return nil, fmt.Errorf("%w: empty channel segment", ErrNotFound)
		}
		return &model.Resolution{ChannelID: id, Method: model.MethodChannelPath}, nil

	case strings.Contains(rawURL, "/user/"):
		username := segmentAfter(rawURL, "/user/")
		if username == "" {
			return nil, fmt.Errorf("%w: empty username segment", ErrNotFound)
		}
		id, err := r.api.ChannelIDByUsername(ctx, username)
		if errors.Is(err, youtube.ErrNoResults) {
			return nil, fmt.Errorf("%w: no channel for username %q", ErrNotFound, username)
		}
		if err != nil {
			return nil, err
		}
		r.recordQuota(ctx, youtube.QuotaCostChannelsList, "channels_list")
		return &model.Resolution{ChannelID: id, Method: model.MethodUsernameLookup}, nil

	case strings.Contains(rawURL, "/c/"):
		return r.searchResolve(ctx, segmentAfter(rawURL, "/c/"), model.MethodCustomSearch)

	case strings.Contains(rawURL, "/@"):
		return r.searchResolve(ctx, segmentAfter(rawURL, "/@"), model.MethodHandleSearch)

	default:
		return r.searchResolve(ctx, lastSegment(rawURL), model.MethodFallbackSearch)
	}
}

// searchResolve runs the best-effort search strategy shared by the custom
// URL, handle, and fallback branches. The top-ranked channel for the query
// text wins, which may silently be the wrong channel; the matched title is
// surfaced so callers can sanity-check it.
func (r *Resolver) searchResolve(ctx context.Context, query, method string) (*model.Resolution, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query segment", ErrNotFound)
	}

	id, title, err := r.api.SearchChannel(ctx, query)
	if errors.Is(err, youtube.ErrNoResults) {
		return nil, fmt.Errorf("%w: no search match for %q", ErrNotFound, query)
	}
	if err != nil {
		return nil, err
	}
	r.recordQuota(ctx, youtube.QuotaCostSearchList, "search_list")

	return &model.Resolution{ChannelID: id, MatchedTitle: title, Method: method}, nil
}

func (r *Resolver) memoize(ctx context.Context, key string, entry memoEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.cacheTTL); err != nil {
		r.logger.Warn("resolver cache write failed", "error", err)
	}
}

func (r *Resolver) recordQuota(ctx context.Context, cost int, operation string) {
	if r.quota == nil {
		return
	}
	if err := r.quota.Record(ctx, cost, operation); err != nil {
		r.logger.Warn("failed to record quota usage", "operation", operation, "error", err)
	}
}

// segmentAfter returns the path segment immediately following marker, up to
// the next slash or end of string.
func segmentAfter(rawURL, marker string) string {
	idx := strings.Index(rawURL, marker)
	if idx == -1 {
		return ""
	}
	segment := rawURL[idx+len(marker):]
	if slash := strings.Index(segment, "/"); slash != -1 {
		segment = segment[:slash]
	}
	return segment
}

// lastSegment returns the last non-empty path segment after stripping
// trailing slashes.
func lastSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx != -1 {
		return trimmed[idx+1:]
	}
	return trimmed
}
