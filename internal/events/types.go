package events

import "time"

// EventType identifies the kind of event broadcast to dashboard clients
type EventType string

const (
	// EventTypeRedaction is emitted when a tool's output was sanitized
	EventTypeRedaction EventType = "redaction"
	// EventTypeRequestLog is emitted for each completed HTTP request
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus carries periodic service status
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection is emitted on client connect/disconnect
	EventTypeConnection EventType = "connection"
)

// Event is the envelope sent to WebSocket clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// RedactionEvent reports that a tool's output passed through the engine.
// It carries only metadata, never the text involved.
type RedactionEvent struct {
	RequestID  string  `json:"request_id"`
	Tool       string  `json:"tool"`
	Items      int     `json:"items"`
	Redacted   bool    `json:"redacted"`
	DurationMS float64 `json:"duration_ms"`
}

// RequestLogEvent reports a completed HTTP request
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	Duration   time.Duration `json:"duration"`
}

// ConnectionEvent reports a dashboard client connecting or disconnecting
type ConnectionEvent struct {
	Action   string `json:"action"`
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}
