package queue

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/commentrank/channel-report-go/internal/model"
	"github.com/commentrank/channel-report-go/internal/report"
	"github.com/commentrank/channel-report-go/internal/resolver"
)

// ChannelResolver resolves a channel URL to a channel id.
type ChannelResolver interface {
	Resolve(ctx context.Context, rawURL string) (*model.Resolution, error)
}

// VideoCollector collects a channel's full video collection.
type VideoCollector interface {
	Collect(ctx context.Context, channelID string) (model.VideoCollection, error)
}

// ReportHandler processes queued report generation tasks.
type ReportHandler struct {
	resolver  ChannelResolver
	collector VideoCollector
	store     *ReportStore
}

// NewReportHandler creates a report task handler.
func NewReportHandler(res ChannelResolver, col VideoCollector, store *ReportStore) *ReportHandler {
	return &ReportHandler{
		resolver:  res,
		collector: col,
		store:     store,
	}
}

// ProcessTask implements asynq.HandlerFunc for report generation.
func (h *ReportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalReportPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("[Handler] Processing report: report_id=%s, url=%s", payload.ReportID, payload.URL)

	res, err := h.resolver.Resolve(ctx, payload.URL)
	if errors.Is(err, resolver.ErrNotFound) {
		// Retrying cannot make a missing channel appear.
		h.markFailed(ctx, payload.ReportID, "could not extract channel ID")
		return fmt.Errorf("channel not found for %s: %w", payload.URL, asynq.SkipRetry)
	}
	if err != nil {
		h.markFailed(ctx, payload.ReportID, err.Error())
		return fmt.Errorf("failed to resolve channel: %w", err)
	}

	collection, err := h.collector.Collect(ctx, res.ChannelID)
	if err != nil {
		h.markFailed(ctx, payload.ReportID, err.Error())
		return fmt.Errorf("failed to collect videos: %w", err)
	}

	r := report.Build(res, collection, payload.Filter)
	r.ID = payload.ReportID

	if err := h.store.SetCompleted(ctx, r); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	log.Printf("[Handler] Report completed: report_id=%s, videos=%d", r.ID, r.Total)
	return nil
}

func (h *ReportHandler) markFailed(ctx context.Context, reportID, message string) {
	if err := h.store.SetFailed(ctx, reportID, message); err != nil {
		log.Printf("[Handler] Warning: failed to record report failure: %v", err)
	}
}

// Server wraps the asynq server for processing report tasks.
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
}

// NewServer creates a task processing server.
func NewServer(redisAddr string, concurrency int, handler *ReportHandler) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Server] Task failed: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReportGenerate, handler.ProcessTask)

	return &Server{
		asynqServer: srv,
		mux:         mux,
	}, nil
}

// Start starts the server.
func (s *Server) Start() error {
	log.Println("[Server] Starting task processing server...")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	log.Println("[Server] Shutting down task processing server...")
	s.asynqServer.Shutdown()
}
