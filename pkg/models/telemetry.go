package models

// TelemetrySession groups events from one frontend visit.
type TelemetrySession struct {
	ID          string `json:"id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
	PageViews   int    `json:"page_views"`
	EventsCount int    `json:"events_count"`
	UserAgent   string `json:"user_agent,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// TelemetryEvent is one client-side event. Payload is free-form JSON sent
// by the frontend.
type TelemetryEvent struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	EventType     string         `json:"event_type"`
	EventCategory string         `json:"event_category"`
	EventName     string         `json:"event_name"`
	Timestamp     string         `json:"timestamp"`
	UserAgent     string         `json:"user_agent,omitempty"`
	IPAddress     string         `json:"ip_address,omitempty"`
	PageURL       string         `json:"page_url,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	DurationMS    *int64         `json:"duration_ms,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// PerformanceMetric is one client-side performance sample.
type PerformanceMetric struct {
	ID             string         `json:"id"`
	Timestamp      string         `json:"timestamp"`
	MetricType     string         `json:"metric_type"`
	MetricName     string         `json:"metric_name"`
	Value          float64        `json:"value"`
	Unit           string         `json:"unit,omitempty"`
	SessionID      string         `json:"session_id,omitempty"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// Aggregation rows for the telemetry dashboard.
type (
	EventCount struct {
		EventName string `json:"event_name"`
		Count     int    `json:"count"`
	}
	CategoryCount struct {
		EventCategory string `json:"event_category"`
		Count         int    `json:"count"`
	}
	DateCount struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}
	ErrorCount struct {
		EventName    string `json:"event_name"`
		ErrorMessage string `json:"error_message"`
		Count        int    `json:"count"`
	}
	SearchCount struct {
		SearchQuery string `json:"search_query"`
		Count       int    `json:"count"`
	}
)

// TelemetryDashboard is the aggregated view over a time range.
type TelemetryDashboard struct {
	TotalEvents      int             `json:"totalEvents"`
	TotalSessions    int             `json:"totalSessions"`
	TopEvents        []EventCount    `json:"topEvents"`
	EventsByCategory []CategoryCount `json:"eventsByCategory"`
	EventsOverTime   []DateCount     `json:"eventsOverTime"`
	ErrorEvents      []ErrorCount    `json:"errorEvents"`
	SearchAnalytics  []SearchCount   `json:"searchAnalytics"`
}
