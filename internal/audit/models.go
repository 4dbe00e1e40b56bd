package audit

import (
	"time"
)

// Severity levels for audit events, used for SIEM routing.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	Stage     string         `json:"stage,omitempty"`
	Severity  Severity       `json:"severity"`
	Reason    string         `json:"reason,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	ClientIP  string         `json:"client_ip,omitempty"`
	Device    string         `json:"device,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// AuditEvent names a recordable action.
type AuditEvent string

const (
	// Erasure workflow events. Destructive by nature, always critical.
	EventErasureInitiated AuditEvent = "erasure_initiated"
	EventErasureCompleted AuditEvent = "erasure_completed"
	EventErasureFailed    AuditEvent = "erasure_failed"

	// Collaborator-level events
	EventExportCreated   AuditEvent = "export_created"
	EventSessionsRevoked AuditEvent = "sessions_revoked"
	EventUserDeleted     AuditEvent = "user_deleted"
)

// DefaultSeverity returns the severity an event carries unless the emitter
// overrides it.
func (e AuditEvent) DefaultSeverity() Severity {
	switch e {
	case EventErasureInitiated, EventErasureCompleted, EventErasureFailed, EventUserDeleted:
		return SeverityCritical
	case EventSessionsRevoked:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
