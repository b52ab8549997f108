package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"libraryhub/pkg/models"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Repo is the SQLite-backed telemetry store.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreateSession(ctx context.Context, s models.TelemetrySession) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO telemetry_sessions (id, start_time, user_agent, ip_address, referrer)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.StartTime, s.UserAgent, s.IPAddress, s.Referrer)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *Repo) RecordEvent(ctx context.Context, e models.TelemetryEvent) error {
	payload, err := marshalJSONField(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO telemetry_events
			(id, session_id, event_type, event_category, event_name, timestamp,
			 user_agent, ip_address, page_url, payload, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionID, e.EventType, e.EventCategory, e.EventName, e.Timestamp,
		e.UserAgent, e.IPAddress, e.PageURL, payload, e.DurationMS, nullString(e.ErrorMessage))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	// Keep the session counters current. Best effort: the event itself is
	// already durable.
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE telemetry_sessions
		SET events_count = events_count + 1, end_time = ?
		WHERE id = ?
	`, e.Timestamp, e.SessionID); err != nil {
		return fmt.Errorf("bump session counters: %w", err)
	}
	return nil
}

func (r *Repo) RecordMetric(ctx context.Context, m models.PerformanceMetric) error {
	extra, err := marshalJSONField(m.AdditionalData)
	if err != nil {
		return fmt.Errorf("marshal additional data: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO performance_metrics
			(id, timestamp, metric_type, metric_name, value, unit, session_id, additional_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Timestamp, m.MetricType, m.MetricName, m.Value, m.Unit, m.SessionID, extra)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

func (r *Repo) Dashboard(ctx context.Context, since time.Time) (models.TelemetryDashboard, error) {
	d := models.TelemetryDashboard{
		TopEvents:        []models.EventCount{},
		EventsByCategory: []models.CategoryCount{},
		EventsOverTime:   []models.DateCount{},
		ErrorEvents:      []models.ErrorCount{},
		SearchAnalytics:  []models.SearchCount{},
	}
	cutoff := since.UTC().Format(time.RFC3339)

	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM telemetry_events WHERE timestamp >= ?
	`, cutoff).Scan(&d.TotalEvents); err != nil {
		return d, fmt.Errorf("total events: %w", err)
	}

	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM telemetry_sessions WHERE start_time >= ?
	`, cutoff).Scan(&d.TotalSessions); err != nil {
		return d, fmt.Errorf("total sessions: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT event_name, COUNT(*) AS count
		FROM telemetry_events
		WHERE timestamp >= ?
		GROUP BY event_name
		ORDER BY count DESC
		LIMIT 10
	`, cutoff)
	if err != nil {
		return d, fmt.Errorf("top events: %w", err)
	}
	for rows.Next() {
		var ec models.EventCount
		if err := rows.Scan(&ec.EventName, &ec.Count); err != nil {
			rows.Close()
			return d, fmt.Errorf("scan top events: %w", err)
		}
		d.TopEvents = append(d.TopEvents, ec)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT event_category, COUNT(*) AS count
		FROM telemetry_events
		WHERE timestamp >= ?
		GROUP BY event_category
		ORDER BY count DESC
	`, cutoff)
	if err != nil {
		return d, fmt.Errorf("events by category: %w", err)
	}
	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.EventCategory, &cc.Count); err != nil {
			rows.Close()
			return d, fmt.Errorf("scan categories: %w", err)
		}
		d.EventsByCategory = append(d.EventsByCategory, cc)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT DATE(timestamp) AS date, COUNT(*) AS count
		FROM telemetry_events
		WHERE timestamp >= ?
		GROUP BY DATE(timestamp)
		ORDER BY date
	`, cutoff)
	if err != nil {
		return d, fmt.Errorf("events over time: %w", err)
	}
	for rows.Next() {
		var dc models.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			rows.Close()
			return d, fmt.Errorf("scan daily buckets: %w", err)
		}
		d.EventsOverTime = append(d.EventsOverTime, dc)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT event_name, error_message, COUNT(*) AS count
		FROM telemetry_events
		WHERE timestamp >= ? AND error_message IS NOT NULL
		GROUP BY event_name, error_message
		ORDER BY count DESC
		LIMIT 10
	`, cutoff)
	if err != nil {
		return d, fmt.Errorf("error events: %w", err)
	}
	for rows.Next() {
		var ec models.ErrorCount
		if err := rows.Scan(&ec.EventName, &ec.ErrorMessage, &ec.Count); err != nil {
			rows.Close()
			return d, fmt.Errorf("scan error events: %w", err)
		}
		d.ErrorEvents = append(d.ErrorEvents, ec)
	}
	rows.Close()

	rows, err = r.DB.QueryContext(ctx, `
		SELECT JSON_EXTRACT(payload, '$.query') AS search_query, COUNT(*) AS count
		FROM telemetry_events
		WHERE timestamp >= ?
		  AND event_category = 'search'
		  AND JSON_EXTRACT(payload, '$.query') IS NOT NULL
		GROUP BY JSON_EXTRACT(payload, '$.query')
		ORDER BY count DESC
		LIMIT 10
	`, cutoff)
	if err != nil {
		return d, fmt.Errorf("search analytics: %w", err)
	}
	for rows.Next() {
		var sc models.SearchCount
		if err := rows.Scan(&sc.SearchQuery, &sc.Count); err != nil {
			rows.Close()
			return d, fmt.Errorf("scan search analytics: %w", err)
		}
		d.SearchAnalytics = append(d.SearchAnalytics, sc)
	}
	rows.Close()

	return d, nil
}

func (r *Repo) Events(ctx context.Context, q EventQuery) ([]models.TelemetryEvent, error) {
	sqlStr := `
		SELECT id, session_id, event_type, event_category, event_name, timestamp,
		       user_agent, ip_address, page_url, payload, duration_ms, error_message
		FROM telemetry_events
		WHERE timestamp >= ?
	`
	args := []any{q.Since.UTC().Format(time.RFC3339)}

	if q.Category != "" {
		sqlStr += " AND event_category = ?"
		args = append(args, q.Category)
	}
	if q.EventName != "" {
		sqlStr += " AND event_name = ?"
		args = append(args, q.EventName)
	}

	sqlStr += " ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?"
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]models.TelemetryEvent, 0, limit)
	for rows.Next() {
		var (
			e          models.TelemetryEvent
			userAgent  sql.NullString
			ipAddress  sql.NullString
			pageURL    sql.NullString
			payload    sql.NullString
			durationMS sql.NullInt64
			errMsg     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.EventType, &e.EventCategory, &e.EventName,
			&e.Timestamp, &userAgent, &ipAddress, &pageURL, &payload, &durationMS, &errMsg); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.UserAgent = userAgent.String
		e.IPAddress = ipAddress.String
		e.PageURL = pageURL.String
		e.ErrorMessage = errMsg.String
		if durationMS.Valid {
			v := durationMS.Int64
			e.DurationMS = &v
		}
		if payload.Valid && payload.String != "" {
			_ = jsonAPI.UnmarshalFromString(payload.String, &e.Payload)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func marshalJSONField(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	s, err := jsonAPI.MarshalToString(m)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
