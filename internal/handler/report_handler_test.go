package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/queue"
	"github.com/commentrank/channel-report-go/internal/report"
	"github.com/commentrank/channel-report-go/internal/resolver"
)

type fakeResolver struct {
	res *model.Resolution
	err error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (*model.Resolution, error) {
	return f.res, f.err
}

type fakeCollector struct {
	collection model.VideoCollection
	err        error
}

func (f *fakeCollector) Collect(_ context.Context, _ string) (model.VideoCollection, error) {
	return f.collection, f.err
}

type fakeEnqueuer struct {
	id  string
	err error

	lastURL    string
	lastFilter report.Filter
}

func (f *fakeEnqueuer) EnqueueReport(_ context.Context, url string, filter report.Filter) (string, error) {
	f.lastURL = url
	f.lastFilter = filter
	return f.id, f.err
}

type fakeStatusStore struct {
	status *queue.ReportStatus
	err    error
}

func (f *fakeStatusStore) Get(_ context.Context, _ string) (*queue.ReportStatus, error) {
	return f.status, f.err
}

func newTestRouter(h *ReportHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/report", h.GetReport)
	r.POST("/api/v1/reports", h.CreateReport)
	r.GET("/api/v1/reports/:id", h.GetReportByID)
	return r
}

func TestGetReport_Success(t *testing.T) {
	h := NewReportHandler(
		&fakeResolver{res: &model.Resolution{ChannelID: "UCx", MatchedTitle: "Some Channel"}},
		&fakeCollector{collection: model.VideoCollection{
			model.NewVideoRecord("short", "A Short", 90, 3),
			model.NewVideoRecord("long", "A Video", 400, 9),
		}},
		nil, nil, nil,
	)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/report?url=https://www.youtube.com/@x&filter=videos", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "UCx", got.ChannelID)
	assert.Equal(t, report.FilterVideos, got.Filter)
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Videos, 1)
	assert.Equal(t, "long", got.Videos[0].ID)
}

func TestGetReport_MissingURL(t *testing.T) {
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, nil, nil, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/report", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport_BadFilter(t *testing.T) {
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, nil, nil, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/report?url=x&filter=nope", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport_ChannelNotFound(t *testing.T) {
	h := NewReportHandler(&fakeResolver{err: resolver.ErrNotFound}, &fakeCollector{}, nil, nil, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/report?url=https://www.youtube.com/@ghost", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), channelNotFoundMessage)
}

func TestGetReport_UpstreamFailure(t *testing.T) {
	h := NewReportHandler(&fakeResolver{err: errors.New("googleapi: Error 500")}, &fakeCollector{}, nil, nil, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/report?url=https://www.youtube.com/@x", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetReport_CollectionFailure(t *testing.T) {
	h := NewReportHandler(
		&fakeResolver{res: &model.Resolution{ChannelID: "UCx"}},
		&fakeCollector{err: errors.New("googleapi: Error 403")},
		nil, nil, nil,
	)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/report?url=https://www.youtube.com/@x", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCreateReport_Accepted(t *testing.T) {
	enq := &fakeEnqueuer{id: "report-1"}
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, enq, &fakeStatusStore{}, nil)
	router := newTestRouter(h)

	body := `{"url":"https://www.youtube.com/@x","filter":"shorts"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "report-1")
	assert.Equal(t, "https://www.youtube.com/@x", enq.lastURL)
	assert.Equal(t, report.FilterShorts, enq.lastFilter)
}

func TestCreateReport_MissingURL(t *testing.T) {
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, &fakeEnqueuer{}, &fakeStatusStore{}, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReport_NotConfigured(t *testing.T) {
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, nil, nil, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reports", strings.NewReader(`{"url":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetReportByID(t *testing.T) {
	store := &fakeStatusStore{status: &queue.ReportStatus{ID: "report-1", Status: queue.StatusCompleted}}
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, &fakeEnqueuer{}, store, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/reports/report-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), queue.StatusCompleted)
}

func TestGetReportByID_Unknown(t *testing.T) {
	store := &fakeStatusStore{err: queue.ErrUnknownReport}
	h := NewReportHandler(&fakeResolver{}, &fakeCollector{}, &fakeEnqueuer{}, store, nil)
	router := newTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/reports/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
