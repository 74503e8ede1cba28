// Package quota tracks daily YouTube API quota spend against a configured
// limit so the service can refuse work before the upstream does.
package quota

import (
	"context"
	"fmt"
	"log"
)

// Usage is one day's accumulated quota spend.
type Usage struct {
	QuotaUsed       int
	QuotaLimit      int
	OperationsCount int
}

// Tracker persists per-day quota usage.
type Tracker interface {
	// Today returns the usage accumulated so far today.
	Today(ctx context.Context) (*Usage, error)

	// Add increments today's usage by cost, attributed to operation.
	Add(ctx context.Context, cost int, operation string) error
}

// Manager enforces a daily limit with a safety threshold below it.
type Manager struct {
	tracker          Tracker
	dailyLimit       int
	thresholdPercent int // refuse work past this share of the daily limit
}

// NewManager creates a Manager. Zero or out-of-range arguments fall back to
// the YouTube API v3 default limit of 10000 units and a 90% threshold.
func NewManager(tracker Tracker, dailyLimit, thresholdPercent int) *Manager {
	if dailyLimit <= 0 {
		dailyLimit = 10000
	}
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		thresholdPercent = 90
	}
	return &Manager{
		tracker:          tracker,
		dailyLimit:       dailyLimit,
		thresholdPercent: thresholdPercent,
	}
}

func (m *Manager) threshold() int {
	return (m.dailyLimit * m.thresholdPercent) / 100
}

// Available reports whether cost units can be spent without crossing the
// threshold.
func (m *Manager) Available(ctx context.Context, cost int) (bool, error) {
	usage, err := m.tracker.Today(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get quota usage: %w", err)
	}

	if usage.QuotaUsed+cost > m.threshold() {
		log.Printf("[Quota] Not enough quota: need %d, used %d/%d (threshold %d)",
			cost, usage.QuotaUsed, m.dailyLimit, m.threshold())
		return false, nil
	}
	return true, nil
}

// Record adds spent quota to today's ledger.
func (m *Manager) Record(ctx context.Context, cost int, operation string) error {
	if err := m.tracker.Add(ctx, cost, operation); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	usage, err := m.tracker.Today(ctx)
	if err == nil {
		log.Printf("[Quota] Used: %d/%d (%.1f%%) - Cost: %d (%s)",
			usage.QuotaUsed, m.dailyLimit,
			float64(usage.QuotaUsed)/float64(m.dailyLimit)*100, cost, operation)
	}
	return nil
}

// Exhausted reports whether today's spend has reached the threshold.
func (m *Manager) Exhausted(ctx context.Context) (bool, error) {
	usage, err := m.tracker.Today(ctx)
	if err != nil {
		return false, err
	}
	return usage.QuotaUsed >= m.threshold(), nil
}

// Remaining returns how many units are left before the threshold, never
// negative.
func (m *Manager) Remaining(ctx context.Context) (int, error) {
	usage, err := m.tracker.Today(ctx)
	if err != nil {
		return 0, err
	}

	remaining := m.threshold() - usage.QuotaUsed
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
