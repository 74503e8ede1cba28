package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/youtube"
)

// fakeVideoAPI serves a fixed sequence of listing pages keyed by page token
// and answers detail batches from a per-video table.
type fakeVideoAPI struct {
	pages   map[string]*youtube.VideoPage
	details map[string]youtube.VideoDetail

	listCalls   int
	detailCalls int
	listErr     error
	detailErr   error
}

func (f *fakeVideoAPI) ListVideoPage(_ context.Context, _ string, pageToken string) (*youtube.VideoPage, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("unexpected page token %q", pageToken)
	}
	return page, nil
}

func (f *fakeVideoAPI) FetchVideoDetails(_ context.Context, videoIDs []string) ([]youtube.VideoDetail, error) {
	f.detailCalls++
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	// Answer in reverse order on purpose: the join must be by id, never
	// positional.
	details := make([]youtube.VideoDetail, 0, len(videoIDs))
	for i := len(videoIDs) - 1; i >= 0; i-- {
		detail, ok := f.details[videoIDs[i]]
		if !ok {
			continue
		}
		details = append(details, detail)
	}
	return details, nil
}

func listItem(id string) youtube.VideoListItem {
	return youtube.VideoListItem{ID: id, Title: "Title " + id}
}

func newTestCollector(api *fakeVideoAPI) *Collector {
	return New(api, cache.NewMemoryCache(), time.Hour, nil, nil)
}

func TestCollect_SinglePage(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1"), listItem("v2")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT2M", CommentCount: 7},
			"v2": {ID: "v2", Duration: "PT10M", CommentCount: 3},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)
	require.Len(t, collection, 2)

	byID := make(map[string]model.VideoRecord)
	for _, v := range collection {
		byID[v.ID] = v
	}

	assert.Equal(t, "Title v1", byID["v1"].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", byID["v1"].URL)
	assert.Equal(t, float64(120), byID["v1"].DurationSeconds)
	assert.Equal(t, int64(7), byID["v1"].CommentCount)
	assert.Equal(t, float64(600), byID["v2"].DurationSeconds)

	assert.Equal(t, 1, api.listCalls)
	assert.Equal(t, 1, api.detailCalls)
}

func TestCollect_PaginationTerminates(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"":  {Items: []youtube.VideoListItem{listItem("a1"), listItem("a2")}, NextPageToken: "A"},
			"A": {Items: []youtube.VideoListItem{listItem("b1")}, NextPageToken: "B"},
			"B": {Items: []youtube.VideoListItem{listItem("c1")}},
		},
		details: map[string]youtube.VideoDetail{
			"a1": {ID: "a1", Duration: "PT1M", CommentCount: 1},
			"a2": {ID: "a2", Duration: "PT2M", CommentCount: 2},
			"b1": {ID: "b1", Duration: "PT3M", CommentCount: 3},
			"c1": {ID: "c1", Duration: "PT4M", CommentCount: 4},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)

	assert.Equal(t, 3, api.listCalls)
	assert.Equal(t, 3, api.detailCalls, "one detail batch per page")
	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, collection.IDs(),
		"pages must concatenate in listing order")
}

func TestCollect_EmptyChannel(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{"": {}},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCempty")
	require.NoError(t, err)

	assert.Empty(t, collection)
	assert.Equal(t, 1, api.listCalls)
	assert.Zero(t, api.detailCalls)
}

func TestCollect_PreservesListingOrderWithinPage(t *testing.T) {
	// The fake answers details in reverse; listing order must still win.
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1"), listItem("v2"), listItem("v3")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT1M"},
			"v2": {ID: "v2", Duration: "PT1M"},
			"v3": {ID: "v3", Duration: "PT1M"},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)

	assert.Equal(t, []string{"v1", "v2", "v3"}, collection.IDs(),
		"records must follow the listing order, not the detail response order")
	for _, v := range collection {
		assert.Equal(t, "Title "+v.ID, v.Title)
		assert.Equal(t, model.WatchURL(v.ID), v.URL)
	}
}

func TestCollect_DropsIDsAbsentFromDetails(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1"), listItem("gone"), listItem("v3")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT1M"},
			"v3": {ID: "v3", Duration: "PT1M"},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)

	assert.Equal(t, []string{"v1", "v3"}, collection.IDs())
}

func TestCollect_MissingCommentCountIsZero(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT5M"},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Zero(t, collection[0].CommentCount)
}

func TestCollect_UnparseableDurationIsZero(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "garbage", CommentCount: 2},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Zero(t, collection[0].DurationSeconds)
	assert.Equal(t, int64(2), collection[0].CommentCount)
}

func TestCollect_MissingTitleGetsPlaceholder(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{{ID: "v1"}}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT1M"},
		},
	}
	c := newTestCollector(api)

	collection, err := c.Collect(context.Background(), "UCx")
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, placeholderTitle, collection[0].Title)
}

func TestCollect_Idempotent(t *testing.T) {
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1")}},
		},
		details: map[string]youtube.VideoDetail{
			"v1": {ID: "v1", Duration: "PT2M", CommentCount: 9},
		},
	}
	c := newTestCollector(api)
	ctx := context.Background()

	first, err := c.Collect(ctx, "UCx")
	require.NoError(t, err)

	second, err := c.Collect(ctx, "UCx")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.listCalls, "second collect must not hit the network")
	assert.Equal(t, 1, api.detailCalls)
}

func TestCollect_ListingFailurePropagates(t *testing.T) {
	upstream := errors.New("googleapi: Error 500")
	api := &fakeVideoAPI{listErr: upstream}
	c := newTestCollector(api)

	_, err := c.Collect(context.Background(), "UCx")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}

func TestCollect_DetailFailurePropagates(t *testing.T) {
	upstream := errors.New("googleapi: Error 403")
	api := &fakeVideoAPI{
		pages: map[string]*youtube.VideoPage{
			"": {Items: []youtube.VideoListItem{listItem("v1")}},
		},
		detailErr: upstream,
	}
	c := newTestCollector(api)

	_, err := c.Collect(context.Background(), "UCx")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
}
