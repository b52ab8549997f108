package telemetry_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryhub/internal/telemetry"
	"libraryhub/pkg/database"
	"libraryhub/pkg/models"
)

var now = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

// runStores exercises the same assertions against the SQLite repo and the
// in-memory sink; their aggregations must agree.
func runStores(t *testing.T, fn func(t *testing.T, s telemetry.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.OpenInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, telemetry.NewRepo(db))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, telemetry.NewMemSink())
	})
}

func ts(offset time.Duration) string {
	return now.Add(offset).UTC().Format(time.RFC3339)
}

func event(id, session, category, name, when string) models.TelemetryEvent {
	return models.TelemetryEvent{
		ID:            id,
		SessionID:     session,
		EventType:     "interaction",
		EventCategory: category,
		EventName:     name,
		Timestamp:     when,
	}
}

func TestSessionEventCounters(t *testing.T) {
	runStores(t, func(t *testing.T, s telemetry.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, models.TelemetrySession{
			ID:        "s1",
			StartTime: ts(0),
			UserAgent: "test-agent",
		}))

		require.NoError(t, s.RecordEvent(ctx, event("e1", "s1", "books", "book_viewed", ts(time.Minute))))
		require.NoError(t, s.RecordEvent(ctx, event("e2", "s1", "books", "book_viewed", ts(2*time.Minute))))

		// An event for an unknown session is still stored.
		require.NoError(t, s.RecordEvent(ctx, event("e3", "ghost", "books", "book_viewed", ts(3*time.Minute))))

		d, err := s.Dashboard(ctx, now.AddDate(0, 0, -7))
		require.NoError(t, err)
		assert.Equal(t, 3, d.TotalEvents)
		assert.Equal(t, 1, d.TotalSessions)
	})
}

func TestDashboardAggregations(t *testing.T) {
	runStores(t, func(t *testing.T, s telemetry.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, models.TelemetrySession{ID: "s1", StartTime: ts(0)}))

		// Distinct counts per name so ordering is deterministic everywhere.
		for i, name := range []string{"search_performed", "search_performed", "search_performed", "book_viewed", "book_viewed", "checkout_started"} {
			e := event(fmt.Sprintf("agg-%d", i), "s1", "books", name, ts(time.Duration(i)*time.Minute))
			if name == "search_performed" {
				e.EventCategory = "search"
				e.Payload = map[string]any{"query": "dune"}
			}
			require.NoError(t, s.RecordEvent(ctx, e))
		}

		failed := event("err-1", "s1", "books", "checkout_failed", ts(10*time.Minute))
		failed.ErrorMessage = "book not available"
		require.NoError(t, s.RecordEvent(ctx, failed))

		// Outside the window, must not be counted.
		require.NoError(t, s.RecordEvent(ctx, event("old-1", "s1", "books", "book_viewed", ts(-30*24*time.Hour))))

		d, err := s.Dashboard(ctx, now.AddDate(0, 0, -7))
		require.NoError(t, err)

		assert.Equal(t, 7, d.TotalEvents)
		require.NotEmpty(t, d.TopEvents)
		assert.Equal(t, models.EventCount{EventName: "search_performed", Count: 3}, d.TopEvents[0])

		require.Len(t, d.EventsByCategory, 2)
		assert.Equal(t, models.CategoryCount{EventCategory: "books", Count: 4}, d.EventsByCategory[0])
		assert.Equal(t, models.CategoryCount{EventCategory: "search", Count: 3}, d.EventsByCategory[1])

		require.Len(t, d.EventsOverTime, 1)
		assert.Equal(t, "2026-08-20", d.EventsOverTime[0].Date)
		assert.Equal(t, 7, d.EventsOverTime[0].Count)

		require.Len(t, d.ErrorEvents, 1)
		assert.Equal(t, models.ErrorCount{EventName: "checkout_failed", ErrorMessage: "book not available", Count: 1}, d.ErrorEvents[0])

		require.Len(t, d.SearchAnalytics, 1)
		assert.Equal(t, models.SearchCount{SearchQuery: "dune", Count: 3}, d.SearchAnalytics[0])
	})
}

func TestEventListing(t *testing.T) {
	runStores(t, func(t *testing.T, s telemetry.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateSession(ctx, models.TelemetrySession{ID: "s1", StartTime: ts(0)}))

		for i := 0; i < 5; i++ {
			name := "book_viewed"
			category := "books"
			if i%2 == 1 {
				name = "search_performed"
				category = "search"
			}
			e := event(fmt.Sprintf("list-%c", 'a'+i), "s1", category, name, ts(time.Duration(i)*time.Minute))
			require.NoError(t, s.RecordEvent(ctx, e))
		}

		since := now.AddDate(0, 0, -1)

		all, err := s.Events(ctx, telemetry.EventQuery{Since: since})
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "list-e", all[0].ID, "newest first")

		searches, err := s.Events(ctx, telemetry.EventQuery{Since: since, Category: "search"})
		require.NoError(t, err)
		require.Len(t, searches, 2)

		named, err := s.Events(ctx, telemetry.EventQuery{Since: since, EventName: "book_viewed"})
		require.NoError(t, err)
		require.Len(t, named, 3)

		page, err := s.Events(ctx, telemetry.EventQuery{Since: since, Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "list-c", page[0].ID)

		empty, err := s.Events(ctx, telemetry.EventQuery{Since: since, Offset: 99})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestSinceFromRange(t *testing.T) {
	assert.Equal(t, now.AddDate(0, 0, -1), telemetry.SinceFromRange("1d", now))
	assert.Equal(t, now.AddDate(0, 0, -7), telemetry.SinceFromRange("7d", now))
	assert.Equal(t, now.AddDate(0, 0, -30), telemetry.SinceFromRange("30d", now))
	assert.Equal(t, now.AddDate(0, 0, -7), telemetry.SinceFromRange("bogus", now))
}
