// Package telemetry ingests frontend usage events and serves aggregate
// views over them. Ingestion is fire-and-forget from the client's point of
// view; a failed write costs a data point, never a user-facing error page.
package telemetry

import (
	"context"
	"time"

	"libraryhub/pkg/models"
)

// EventQuery narrows the detailed event listing.
type EventQuery struct {
	Since     time.Time
	Category  string
	EventName string
	Limit     int
	Offset    int
}

// Store is the persistence contract for telemetry, implemented by the
// SQLite repo and the in-memory sink.
type Store interface {
	CreateSession(ctx context.Context, s models.TelemetrySession) error
	RecordEvent(ctx context.Context, e models.TelemetryEvent) error
	RecordMetric(ctx context.Context, m models.PerformanceMetric) error
	Dashboard(ctx context.Context, since time.Time) (models.TelemetryDashboard, error)
	Events(ctx context.Context, q EventQuery) ([]models.TelemetryEvent, error)
}

// SinceFromRange resolves the dashboard time-range selector (1d, 7d, 30d)
// against now. Unknown values fall back to 7 days.
func SinceFromRange(timeRange string, now time.Time) time.Time {
	switch timeRange {
	case "1d":
		return now.AddDate(0, 0, -1)
	case "30d":
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}
