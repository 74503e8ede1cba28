// Package handler provides HTTP request handlers for the application.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commentrank/channel-report-go/internal/metrics"
	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/queue"
	"github.com/commentrank/channel-report-go/internal/report"
	"github.com/commentrank/channel-report-go/internal/resolver"
)

// channelNotFoundMessage is the user-facing text for a URL that yields no
// channel.
const channelNotFoundMessage = "could not extract channel ID"

// ChannelResolver resolves a channel URL to a channel id.
type ChannelResolver interface {
	Resolve(ctx context.Context, rawURL string) (*model.Resolution, error)
}

// VideoCollector collects a channel's full video collection.
type VideoCollector interface {
	Collect(ctx context.Context, channelID string) (model.VideoCollection, error)
}

// ReportEnqueuer queues an asynchronous report job.
type ReportEnqueuer interface {
	EnqueueReport(ctx context.Context, url string, filter report.Filter) (string, error)
}

// ReportStatusStore reads the state of queued reports.
type ReportStatusStore interface {
	Get(ctx context.Context, reportID string) (*queue.ReportStatus, error)
}

// ReportHandler serves synchronous and asynchronous report endpoints.
type ReportHandler struct {
	resolver  ChannelResolver
	collector VideoCollector
	enqueuer  ReportEnqueuer
	store     ReportStatusStore
	logger    *slog.Logger
}

// NewReportHandler creates a ReportHandler. enqueuer and store may be nil
// when the async path is not configured; the async endpoints then answer 503.
func NewReportHandler(res ChannelResolver, col VideoCollector, enq ReportEnqueuer, store ReportStatusStore, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		resolver:  res,
		collector: col,
		enqueuer:  enq,
		store:     store,
		logger:    logger,
	}
}

// GetReport handles GET /api/v1/report?url=...&filter=... synchronously.
func (h *ReportHandler) GetReport(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	filter, err := report.ParseFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	res, err := h.resolver.Resolve(ctx, rawURL)
	if errors.Is(err, resolver.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": channelNotFoundMessage})
		return
	}
	if err != nil {
		h.logger.Error("channel resolution failed", "url", rawURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream resolution failed"})
		return
	}

	collection, err := h.collector.Collect(ctx, res.ChannelID)
	if err != nil {
		h.logger.Error("video collection failed", "channel_id", res.ChannelID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream collection failed"})
		return
	}

	r := report.Build(res, collection, filter)
	metrics.ReportsGenerated.WithLabelValues(string(filter)).Inc()

	c.JSON(http.StatusOK, r)
}

// createReportRequest is the POST /api/v1/reports body.
type createReportRequest struct {
	URL    string `json:"url" binding:"required"`
	Filter string `json:"filter"`
}

// CreateReport handles POST /api/v1/reports, queueing an async report job.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	if h.enqueuer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async reports are not configured"})
		return
	}

	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	filter, err := report.ParseFilter(req.Filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reportID, err := h.enqueuer.EnqueueReport(c.Request.Context(), req.URL, filter)
	if err != nil {
		h.logger.Error("failed to enqueue report", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue report"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     reportID,
		"status": queue.StatusPending,
	})
}

// GetReportByID handles GET /api/v1/reports/:id.
func (h *ReportHandler) GetReportByID(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async reports are not configured"})
		return
	}

	status, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, queue.ErrUnknownReport) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch report status", "report_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch report"})
		return
	}

	c.JSON(http.StatusOK, status)
}
