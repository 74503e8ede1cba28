package queue

import (
	"encoding/json"
	"fmt"

	"github.com/commentrank/channel-report-go/internal/report"
)

// Task types
const (
	TypeReportGenerate = "report:generate"
)

// ReportPayload is the payload for report generation tasks.
type ReportPayload struct {
	ReportID string        `json:"report_id"`
	URL      string        `json:"url"`
	Filter   report.Filter `json:"filter"`
}

// NewReportTask creates a report generation task payload.
func NewReportTask(reportID, url string, filter report.Filter) (*ReportPayload, error) {
	if reportID == "" {
		return nil, fmt.Errorf("report ID is required")
	}
	if url == "" {
		return nil, fmt.Errorf("channel URL is required")
	}

	return &ReportPayload{
		ReportID: reportID,
		URL:      url,
		Filter:   filter,
	}, nil
}

// Marshal serializes the payload to JSON.
func (p *ReportPayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalReportPayload deserializes JSON to payload.
func UnmarshalReportPayload(data []byte) (*ReportPayload, error) {
	var payload ReportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
