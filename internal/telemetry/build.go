package telemetry

import (
	"time"

	"github.com/google/uuid"

	"libraryhub/pkg/models"
)

func newSession(req sessionReq, ip string) models.TelemetrySession {
	return models.TelemetrySession{
		ID:        uuid.NewString(),
		StartTime: time.Now().UTC().Format(time.RFC3339),
		UserAgent: req.UserAgent,
		IPAddress: ip,
		Referrer:  req.Referrer,
	}
}

func newEvent(req eventReq, ip string) models.TelemetryEvent {
	return models.TelemetryEvent{
		ID:            uuid.NewString(),
		SessionID:     req.SessionID,
		EventType:     req.EventType,
		EventCategory: req.EventCategory,
		EventName:     req.EventName,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UserAgent:     req.UserAgent,
		IPAddress:     ip,
		PageURL:       req.PageURL,
		Payload:       req.Payload,
		DurationMS:    req.Duration,
		ErrorMessage:  req.ErrorMessage,
	}
}

func newMetric(req metricReq) models.PerformanceMetric {
	return models.PerformanceMetric{
		ID:             uuid.NewString(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		MetricType:     req.MetricType,
		MetricName:     req.MetricName,
		Value:          req.Value,
		Unit:           req.Unit,
		SessionID:      req.SessionID,
		AdditionalData: req.AdditionalData,
	}
}
