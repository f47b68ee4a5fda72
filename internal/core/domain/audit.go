package domain

import "time"

// AuditEntry is the persisted audit record for one recovery attempt.
// Entries are append-only and keyed by (session id, entry id).
type AuditEntry struct {
	ID                string        `json:"id"`
	SessionID         string        `json:"session_id"`
	Timestamp         time.Time     `json:"timestamp"`
	Strategy          Strategy      `json:"strategy"`
	Attempt           int           `json:"attempt"`
	Success           bool          `json:"success"`
	ErrorType         ErrorType     `json:"error_type"`
	ErrorCategory     ErrorCategory `json:"error_category"`
	ErrorMessage      string        `json:"error_message"`
	Duration          time.Duration `json:"duration"`
	Message           string        `json:"message,omitempty"`
	Changes           []string      `json:"changes,omitempty"`
	FilesModified     []string      `json:"files_modified,omitempty"`
	RollbackPerformed bool          `json:"rollback_performed"`
	NextAction        string        `json:"next_action,omitempty"`
}

// SessionStatus tracks the lifecycle of an audit session.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusCleared SessionStatus = "cleared"
)

// Session groups all recovery activity for one orchestration run.
type Session struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Status    SessionStatus `json:"status"`
}
