package storage

import (
	"context"
	"errors"

	"github.com/vietddude/remedy/internal/core/domain"
)

var (
	// ErrSessionNotFound is returned when a session doesn't exist
	ErrSessionNotFound = errors.New("session not found")
)

// AuditRepository persists append-only audit entries grouped by session.
// Entries for one session must be readable back in insertion order.
type AuditRepository interface {
	// Append durably stores one entry for the session.
	Append(ctx context.Context, entry *domain.AuditEntry) error

	// List returns all entries for a session in insertion order. A session
	// with no entries yields an empty slice, not an error.
	List(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error)

	// Sessions returns the ids of all sessions with at least one entry.
	Sessions(ctx context.Context) ([]string, error)

	// Clear removes all entries for a session.
	Clear(ctx context.Context, sessionID string) error

	// ClearAll removes every session's entries.
	ClearAll(ctx context.Context) error
}
