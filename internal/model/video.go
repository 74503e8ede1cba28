// Package model defines the data types shared across the report pipeline.
package model

// WatchURLPrefix is the base every video URL is derived from.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// VideoRecord is one video of a channel, merged from the listing and
// detail API responses.
type VideoRecord struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_seconds"`
	CommentCount    int64   `json:"comment_count"`
}

// NewVideoRecord builds a VideoRecord with its URL derived from the id.
func NewVideoRecord(id, title string, durationSeconds float64, commentCount int64) VideoRecord {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if commentCount < 0 {
		commentCount = 0
	}
	return VideoRecord{
		ID:              id,
		Title:           title,
		URL:             WatchURL(id),
		DurationSeconds: durationSeconds,
		CommentCount:    commentCount,
	}
}

// WatchURL returns the canonical watch URL for a video id.
func WatchURL(id string) string {
	return WatchURLPrefix + id
}

// VideoCollection is an ordered sequence of VideoRecord. Insertion order is
// the platform's reverse-chronological listing order until a presenter
// sorts it.
type VideoCollection []VideoRecord

// IDs returns the video ids in collection order.
func (c VideoCollection) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, v := range c {
		ids = append(ids, v.ID)
	}
	return ids
}

// Resolution is the outcome of resolving a channel URL. MatchedTitle carries
// the snippet title of the matched channel when the resolution went through a
// search call, so callers can judge how trustworthy a fuzzy match is.
type Resolution struct {
	ChannelID    string `json:"channel_id"`
	MatchedTitle string `json:"matched_title,omitempty"`
	Method       string `json:"method"`
}

// Resolution methods, in dispatch priority order.
const (
	MethodChannelPath    = "channel_path"
	MethodUsernameLookup = "username_lookup"
	MethodCustomSearch   = "custom_url_search"
	MethodHandleSearch   = "handle_search"
	MethodFallbackSearch = "fallback_search"
)
