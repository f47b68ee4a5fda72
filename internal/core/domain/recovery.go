package domain

import "time"

// RecoveryAttempt records one execution of one strategy. Attempt numbers are
// 1-based and reset when the cascade moves to the next strategy. ResultError
// carries the error still outstanding after a failed attempt and is nil on
// success.
type RecoveryAttempt struct {
	Attempt     int           `json:"attempt"`
	Strategy    Strategy      `json:"strategy"`
	Success     bool          `json:"success"`
	Error       *Error        `json:"error"`
	ResultError *Error        `json:"result_error,omitempty"`
	Changes     []string      `json:"changes,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	Duration    time.Duration `json:"duration"`
	Message     string        `json:"message,omitempty"`
}

// RecoveryResult is the outcome of a full cascade for one Error. SessionID is
// always populated, including when the caller supplied none and the ledger
// generated one, so the audit trail stays queryable.
type RecoveryResult struct {
	Success          bool              `json:"success"`
	SessionID        string            `json:"session_id"`
	Strategy         Strategy          `json:"strategy"`
	Attempts         []RecoveryAttempt `json:"attempts"`
	FinalError       *Error            `json:"final_error,omitempty"`
	Message          string            `json:"message"`
	EscalatedToHuman bool              `json:"escalated_to_human"`
	Timestamp        time.Time         `json:"timestamp"`
}
