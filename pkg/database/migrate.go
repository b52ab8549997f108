package database

import (
	"database/sql"
	"fmt"
)

// Timestamps are written by the application in RFC3339 so the relational
// and in-memory stores order records identically.
const schema = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	genre TEXT,
	year INTEGER,
	isbn TEXT UNIQUE,
	tags TEXT,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'available',
	borrower_id TEXT,
	borrowed_date TEXT,
	due_date TEXT,
	created_at TEXT,
	updated_at TEXT
);

CREATE TABLE IF NOT EXISTS borrowers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE,
	phone TEXT,
	created_at TEXT
);

CREATE TABLE IF NOT EXISTS activity_log (
	id TEXT PRIMARY KEY,
	book_id TEXT,
	borrower_id TEXT,
	action TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	notes TEXT
);

CREATE TABLE IF NOT EXISTS telemetry_sessions (
	id TEXT PRIMARY KEY,
	start_time TEXT NOT NULL,
	end_time TEXT,
	duration_ms INTEGER,
	page_views INTEGER NOT NULL DEFAULT 0,
	events_count INTEGER NOT NULL DEFAULT 0,
	user_agent TEXT,
	ip_address TEXT,
	referrer TEXT
);

CREATE TABLE IF NOT EXISTS telemetry_events (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	event_category TEXT NOT NULL,
	event_name TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	user_agent TEXT,
	ip_address TEXT,
	page_url TEXT,
	payload TEXT,
	duration_ms INTEGER,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS performance_metrics (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	metric_type TEXT NOT NULL,
	metric_name TEXT NOT NULL,
	value REAL NOT NULL,
	unit TEXT,
	session_id TEXT,
	additional_data TEXT
);

CREATE INDEX IF NOT EXISTS idx_books_status ON books(status);
CREATE INDEX IF NOT EXISTS idx_activity_timestamp ON activity_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_session ON telemetry_events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON telemetry_events(timestamp);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
