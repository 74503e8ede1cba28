// Package report filters, orders, and renders a channel's video collection.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/commentrank/channel-report-go/internal/model"
)

// ShortMaxSeconds is the duration boundary between shorts and regular videos.
// A video exactly at the boundary counts as a short.
const ShortMaxSeconds = 180

// Filter selects which duration class of videos a report covers.
type Filter string

const (
	FilterBoth   Filter = "both"
	FilterVideos Filter = "videos"
	FilterShorts Filter = "shorts"
)

// ParseFilter maps user input to a Filter. Empty input means both.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FilterBoth):
		return FilterBoth, nil
	case string(FilterVideos):
		return FilterVideos, nil
	case string(FilterShorts):
		return FilterShorts, nil
	default:
		return "", fmt.Errorf("unknown filter %q, want both, videos, or shorts", s)
	}
}

// Report is one generated comment report.
type Report struct {
	ID           string                `json:"id"`
	ChannelID    string                `json:"channel_id"`
	ChannelTitle string                `json:"channel_title,omitempty"`
	Filter       Filter                `json:"filter"`
	Total        int                   `json:"total"`
	Videos       model.VideoCollection `json:"videos"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// Apply returns the subset of the collection matching the filter. The input
// order is preserved and the input slice is never mutated.
func Apply(collection model.VideoCollection, filter Filter) model.VideoCollection {
	if filter == FilterBoth {
		out := make(model.VideoCollection, len(collection))
		copy(out, collection)
		return out
	}

	out := make(model.VideoCollection, 0, len(collection))
	for _, v := range collection {
		switch filter {
		case FilterVideos:
			if v.DurationSeconds > ShortMaxSeconds {
				out = append(out, v)
			}
		case FilterShorts:
			if v.DurationSeconds <= ShortMaxSeconds {
				out = append(out, v)
			}
		}
	}
	return out
}

// SortByComments orders the collection by comment count, highest first. The
// sort is stable so equal counts keep their listing order and stay adjacent.
func SortByComments(collection model.VideoCollection) {
	sort.SliceStable(collection, func(i, j int) bool {
		return collection[i].CommentCount > collection[j].CommentCount
	})
}

// Build filters and sorts the collection into a finished Report.
func Build(res *model.Resolution, collection model.VideoCollection, filter Filter) *Report {
	videos := Apply(collection, filter)
	SortByComments(videos)

	r := &Report{
		ID:          uuid.NewString(),
		Filter:      filter,
		Total:       len(videos),
		Videos:      videos,
		GeneratedAt: time.Now().UTC(),
	}
	if res != nil {
		r.ChannelID = res.ChannelID
		r.ChannelTitle = res.MatchedTitle
	}
	return r
}

// RenderMarkdown writes the report as a total line followed by one bullet per
// video, durations rounded to two decimal minutes.
func RenderMarkdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Total found:** %d\n", r.Total)
	for _, v := range r.Videos {
		fmt.Fprintf(&b, "- [%s](%s) — Comments: **%d**, Duration: %.2f mins\n",
			v.Title, v.URL, v.CommentCount, v.DurationSeconds/60)
	}
	return b.String()
}
