package telemetry

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"libraryhub/pkg/models"
)

// MemSink keeps telemetry in process memory; it backs the server's
// in-memory mode and the handler tests. Aggregations mirror the SQL ones.
type MemSink struct {
	mu       sync.Mutex
	sessions map[string]*models.TelemetrySession
	events   []models.TelemetryEvent
	metrics  []models.PerformanceMetric
}

func NewMemSink() *MemSink {
	return &MemSink{sessions: make(map[string]*models.TelemetrySession)}
}

func (m *MemSink) CreateSession(_ context.Context, s models.TelemetrySession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := s
	m.sessions[s.ID] = &stored
	return nil
}

func (m *MemSink) RecordEvent(_ context.Context, e models.TelemetryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	if s, ok := m.sessions[e.SessionID]; ok {
		s.EventsCount++
		s.EndTime = e.Timestamp
	}
	return nil
}

func (m *MemSink) RecordMetric(_ context.Context, metric models.PerformanceMetric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = append(m.metrics, metric)
	return nil
}

func (m *MemSink) Dashboard(_ context.Context, since time.Time) (models.TelemetryDashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := models.TelemetryDashboard{
		TopEvents:        []models.EventCount{},
		EventsByCategory: []models.CategoryCount{},
		EventsOverTime:   []models.DateCount{},
		ErrorEvents:      []models.ErrorCount{},
		SearchAnalytics:  []models.SearchCount{},
	}
	cutoff := since.UTC().Format(time.RFC3339)

	byName := make(map[string]int)
	byCategory := make(map[string]int)
	byDate := make(map[string]int)
	byError := make(map[[2]string]int)
	bySearch := make(map[string]int)

	for _, e := range m.events {
		if e.Timestamp < cutoff {
			continue
		}
		d.TotalEvents++
		byName[e.EventName]++
		byCategory[e.EventCategory]++
		if len(e.Timestamp) >= 10 {
			byDate[e.Timestamp[:10]]++
		}
		if e.ErrorMessage != "" {
			byError[[2]string{e.EventName, e.ErrorMessage}]++
		}
		if e.EventCategory == "search" {
			if q, ok := e.Payload["query"].(string); ok && strings.TrimSpace(q) != "" {
				bySearch[q]++
			}
		}
	}

	for _, s := range m.sessions {
		if s.StartTime >= cutoff {
			d.TotalSessions++
		}
	}

	for name, count := range byName {
		d.TopEvents = append(d.TopEvents, models.EventCount{EventName: name, Count: count})
	}
	sort.Slice(d.TopEvents, func(i, j int) bool {
		if d.TopEvents[i].Count != d.TopEvents[j].Count {
			return d.TopEvents[i].Count > d.TopEvents[j].Count
		}
		return d.TopEvents[i].EventName < d.TopEvents[j].EventName
	})
	if len(d.TopEvents) > 10 {
		d.TopEvents = d.TopEvents[:10]
	}

	for cat, count := range byCategory {
		d.EventsByCategory = append(d.EventsByCategory, models.CategoryCount{EventCategory: cat, Count: count})
	}
	sort.Slice(d.EventsByCategory, func(i, j int) bool {
		if d.EventsByCategory[i].Count != d.EventsByCategory[j].Count {
			return d.EventsByCategory[i].Count > d.EventsByCategory[j].Count
		}
		return d.EventsByCategory[i].EventCategory < d.EventsByCategory[j].EventCategory
	})

	for date, count := range byDate {
		d.EventsOverTime = append(d.EventsOverTime, models.DateCount{Date: date, Count: count})
	}
	sort.Slice(d.EventsOverTime, func(i, j int) bool {
		return d.EventsOverTime[i].Date < d.EventsOverTime[j].Date
	})

	for key, count := range byError {
		d.ErrorEvents = append(d.ErrorEvents, models.ErrorCount{EventName: key[0], ErrorMessage: key[1], Count: count})
	}
	sort.Slice(d.ErrorEvents, func(i, j int) bool {
		if d.ErrorEvents[i].Count != d.ErrorEvents[j].Count {
			return d.ErrorEvents[i].Count > d.ErrorEvents[j].Count
		}
		return d.ErrorEvents[i].EventName < d.ErrorEvents[j].EventName
	})
	if len(d.ErrorEvents) > 10 {
		d.ErrorEvents = d.ErrorEvents[:10]
	}

	for q, count := range bySearch {
		d.SearchAnalytics = append(d.SearchAnalytics, models.SearchCount{SearchQuery: q, Count: count})
	}
	sort.Slice(d.SearchAnalytics, func(i, j int) bool {
		if d.SearchAnalytics[i].Count != d.SearchAnalytics[j].Count {
			return d.SearchAnalytics[i].Count > d.SearchAnalytics[j].Count
		}
		return d.SearchAnalytics[i].SearchQuery < d.SearchAnalytics[j].SearchQuery
	})
	if len(d.SearchAnalytics) > 10 {
		d.SearchAnalytics = d.SearchAnalytics[:10]
	}

	return d, nil
}

func (m *MemSink) Events(_ context.Context, q EventQuery) ([]models.TelemetryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	cutoff := q.Since.UTC().Format(time.RFC3339)

	matched := make([]models.TelemetryEvent, 0)
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if e.Timestamp < cutoff {
			continue
		}
		if q.Category != "" && e.EventCategory != q.Category {
			continue
		}
		if q.EventName != "" && e.EventName != q.EventName {
			continue
		}
		matched = append(matched, e)
	}

	if offset >= len(matched) {
		return []models.TelemetryEvent{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
