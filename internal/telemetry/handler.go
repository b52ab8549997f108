package telemetry

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/telemetry/session", h.createSession)
	rg.POST("/telemetry/event", h.recordEvent)
	rg.POST("/telemetry/performance", h.recordMetric)
	rg.GET("/telemetry/dashboard", h.dashboard)
	rg.GET("/telemetry/events", h.events)
}

// Request bodies keep the frontend's camelCase field names.

type sessionReq struct {
	UserAgent string `json:"userAgent"`
	IPAddress string `json:"ipAddress"`
	Referrer  string `json:"referrer"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req sessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ip := req.IPAddress
	if ip == "" {
		ip = c.ClientIP()
	}

	session := newSession(req, ip)
	if err := h.Store.CreateSession(c.Request.Context(), session); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": session.ID})
}

type eventReq struct {
	SessionID     string         `json:"sessionId"`
	EventType     string         `json:"eventType"`
	EventCategory string         `json:"eventCategory"`
	EventName     string         `json:"eventName"`
	UserAgent     string         `json:"userAgent"`
	IPAddress     string         `json:"ipAddress"`
	PageURL       string         `json:"pageUrl"`
	Payload       map[string]any `json:"payload"`
	Duration      *int64         `json:"duration"`
	ErrorMessage  string         `json:"errorMessage"`
}

func (h *Handler) recordEvent(c *gin.Context) {
	var req eventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.EventName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and eventName are required"})
		return
	}

	ip := req.IPAddress
	if ip == "" {
		ip = c.ClientIP()
	}

	event := newEvent(req, ip)
	if err := h.Store.RecordEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event record failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "eventId": event.ID})
}

type metricReq struct {
	SessionID      string         `json:"sessionId"`
	MetricType     string         `json:"metricType"`
	MetricName     string         `json:"metricName"`
	Value          float64        `json:"value"`
	Unit           string         `json:"unit"`
	AdditionalData map[string]any `json:"additionalData"`
}

func (h *Handler) recordMetric(c *gin.Context) {
	var req metricReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	metric := newMetric(req)
	if err := h.Store.RecordMetric(c.Request.Context(), metric); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "metric record failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "metricId": metric.ID})
}

func (h *Handler) dashboard(c *gin.Context) {
	since := SinceFromRange(c.DefaultQuery("timeRange", "7d"), time.Now().UTC())

	d, err := h.Store.Dashboard(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard failed"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) events(c *gin.Context) {
	q := EventQuery{
		Since:     SinceFromRange(c.DefaultQuery("timeRange", "7d"), time.Now().UTC()),
		Category:  c.Query("category"),
		EventName: c.Query("eventName"),
		Limit:     parseInt(c.Query("limit"), 50),
		Offset:    parseInt(c.Query("offset"), 0),
	}

	events, err := h.Store.Events(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "events failed"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
