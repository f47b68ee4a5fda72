// Package audit records every recovery attempt durably and derives
// statistics, exports and reports from the recorded trail.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/storage"
)

var (
	// ErrNoEntries is returned when exporting a session without entries.
	ErrNoEntries = errors.New("session has no entries")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Ledger is the append-only audit trail over a storage backend. Sessions are
// independent; appends within one session serialize on a session-scoped lock
// so entry order always matches attempt order.
type Ledger struct {
	repo      storage.AuditRepository
	exportDir string
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*domain.Session
	locks    map[string]*sync.Mutex
}

// NewLedger creates a ledger writing exports and reports under exportDir.
func NewLedger(repo storage.AuditRepository, exportDir string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		repo:      repo,
		exportDir: exportDir,
		logger:    logger,
		sessions:  make(map[string]*domain.Session),
		locks:     make(map[string]*sync.Mutex),
	}
}

// StartSession registers a session and returns its id. An empty id gets an
// auto-generated one. Starting an already-known session is a no-op.
func (l *Ledger) StartSession(id string) string {
	if id == "" {
		id = uuid.New().String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessions[id]; !ok {
		l.sessions[id] = &domain.Session{
			ID:        id,
			StartedAt: time.Now(),
			Status:    domain.SessionStatusActive,
		}
		l.locks[id] = &sync.Mutex{}
		l.logger.Debug("audit session started", "session", id)
	}
	return id
}

// session returns the tracked session, registering it implicitly on first
// use so callers may log without an explicit StartSession.
func (l *Ledger) session(id string) (*domain.Session, *sync.Mutex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.sessions[id]; ok {
		return s, l.locks[id]
	}
	s := &domain.Session{
		ID:        id,
		StartedAt: time.Now(),
		Status:    domain.SessionStatusActive,
	}
	l.sessions[id] = s
	l.locks[id] = &sync.Mutex{}
	return s, l.locks[id]
}

// LogAttempt appends one audit entry for a recovery attempt and returns the
// entry id. The write is durable before LogAttempt returns.
func (l *Ledger) LogAttempt(
	ctx context.Context,
	attempt *domain.RecoveryAttempt,
	sessionID string,
	filesModified []string,
	rollbackPerformed bool,
	nextAction string,
) (string, error) {
	if sessionID == "" {
		sessionID = l.StartSession("")
	}
	_, lock := l.session(sessionID)

	entry := &domain.AuditEntry{
		ID:                uuid.New().String(),
		SessionID:         sessionID,
		Timestamp:         attempt.Timestamp,
		Strategy:          attempt.Strategy,
		Attempt:           attempt.Attempt,
		Success:           attempt.Success,
		Duration:          attempt.Duration,
		Message:           attempt.Message,
		Changes:           attempt.Changes,
		FilesModified:     filesModified,
		RollbackPerformed: rollbackPerformed,
		NextAction:        nextAction,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if attempt.Error != nil {
		entry.ErrorType = attempt.Error.Type
		entry.ErrorCategory = attempt.Error.Category
		entry.ErrorMessage = attempt.Error.Message
	}

	lock.Lock()
	defer lock.Unlock()
	if err := l.repo.Append(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to log attempt: %w", err)
	}
	return entry.ID, nil
}

// GetHistory returns all entries for a session in insertion order.
func (l *Ledger) GetHistory(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	return l.repo.List(ctx, sessionID)
}

// Sessions returns all session ids known to the backing store.
func (l *Ledger) Sessions(ctx context.Context) ([]string, error) {
	return l.repo.Sessions(ctx)
}

// ClearSession drops all entries for a session. Clearing a session the store
// has never seen returns storage.ErrSessionNotFound.
func (l *Ledger) ClearSession(ctx context.Context, sessionID string) error {
	known, err := l.repo.Sessions(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, id := range known {
		if id == sessionID {
			found = true
			break
		}
	}
	if !found {
		l.mu.Lock()
		_, tracked := l.sessions[sessionID]
		l.mu.Unlock()
		if !tracked {
			return fmt.Errorf("%w: %s", storage.ErrSessionNotFound, sessionID)
		}
	}

	_, lock := l.session(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.repo.Clear(ctx, sessionID); err != nil {
		return err
	}

	l.mu.Lock()
	if s, ok := l.sessions[sessionID]; ok {
		s.Status = domain.SessionStatusCleared
	}
	l.mu.Unlock()
	return nil
}

// ClearAll drops every session's entries.
func (l *Ledger) ClearAll(ctx context.Context) error {
	if err := l.repo.ClearAll(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sessions {
		s.Status = domain.SessionStatusCleared
	}
	return nil
}
