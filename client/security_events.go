package client

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NIST SP 800-92 compliant event types
const (
	EventAuthentication = "authentication"
	EventConnection     = "connection"
)

// Security event subtypes
const (
	SubtypeAuthAttempt     = "attempt"
	SubtypeAuthSuccess     = "success"
	SubtypeAuthFailure     = "failure"
	SubtypeConnEstablished = "established"
	SubtypeConnFailed      = "failed"
)

// Security event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
	OutcomeAttempt = "attempt"
)

// Security event severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// eventSource identifies this library in security events.
const eventSource = "go-panos"

// SecurityEvent represents a structured security log event compliant with NIST SP 800-92.
type SecurityEvent struct {
	Timestamp string `json:"timestamp"`  // ISO 8601 UTC
	EventType string `json:"event_type"` // authentication, connection
	Subtype   string `json:"subtype"`    // attempt, success, failure
	Severity  string `json:"severity"`

	User          string `json:"user,omitempty"`
	Source        string `json:"source"`
	Target        string `json:"target"`         // device base URL
	CorrelationID string `json:"correlation_id"` // handshake-scoped UUID

	Action  string         `json:"action"` // e.g., "keygen"
	Outcome string         `json:"outcome"`
	Details map[string]any `json:"details,omitempty"`
}

// String returns the JSON representation of the event
func (e *SecurityEvent) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// SecurityLogger generates and writes security events for one handshake.
type SecurityLogger struct {
	logger        *slog.Logger
	user          string
	target        string
	correlationID string
}

// NewSecurityLogger creates a new logger for a handshake.
// It generates a new CorrelationID (UUID) for this logger instance.
func NewSecurityLogger(logger *slog.Logger, user, target string) *SecurityLogger {
	return &SecurityLogger{
		logger:        logger,
		user:          user,
		target:        target,
		correlationID: uuid.New().String(),
	}
}

// CorrelationID returns the ID shared by every event of this logger.
func (l *SecurityLogger) CorrelationID() string {
	return l.correlationID
}

// LogEvent constructs and logs a security event.
func (l *SecurityLogger) LogEvent(eventType, subtype, severity, outcome, action string, details map[string]any) {
	if l.logger == nil {
		return
	}

	event := &SecurityEvent{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EventType:     eventType,
		Subtype:       subtype,
		Severity:      severity,
		User:          l.user,
		Source:        eventSource,
		Target:        l.target,
		CorrelationID: l.correlationID,
		Action:        action,
		Outcome:       outcome,
		Details:       details,
	}
	if event.Details == nil {
		event.Details = make(map[string]any)
	}

	switch severity {
	case SeverityWarning:
		l.logger.Warn("SecurityEvent", "event", event)
	case SeverityError:
		l.logger.Error("SecurityEvent", "event", event)
	default:
		l.logger.Info("SecurityEvent", "event", event)
	}
}

// LogAuthentication logs authentication events.
func (l *SecurityLogger) LogAuthentication(subtype, outcome, severity string, details map[string]any) {
	l.LogEvent(EventAuthentication, subtype, severity, outcome, "keygen", details)
}

// LogConnection logs connection events.
func (l *SecurityLogger) LogConnection(subtype, outcome, severity string, details map[string]any) {
	l.LogEvent(EventConnection, subtype, severity, outcome, "keygen", details)
}
