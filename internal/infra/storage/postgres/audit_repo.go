package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

// AuditRepo implements storage.AuditRepository using PostgreSQL. Insertion
// order is preserved by the serial primary key.
type AuditRepo struct {
	db *DB
}

// NewAuditRepo creates a new PostgreSQL audit repository.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append stores one audit entry.
func (r *AuditRepo) Append(ctx context.Context, entry *domain.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	files, err := json.Marshal(entry.FilesModified)
	if err != nil {
		return fmt.Errorf("failed to marshal files: %w", err)
	}

	query := `
		INSERT INTO audit_entries
			(entry_id, session_id, ts, strategy, attempt, success,
			 error_type, error_category, error_message, duration_ns,
			 message, changes, files_modified, rollback_performed, next_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SessionID,
		entry.Timestamp,
		string(entry.Strategy),
		entry.Attempt,
		entry.Success,
		string(entry.ErrorType),
		string(entry.ErrorCategory),
		entry.ErrorMessage,
		entry.Duration.Nanoseconds(),
		entry.Message,
		changes,
		files,
		entry.RollbackPerformed,
		entry.NextAction,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns all entries for a session in insertion order.
func (r *AuditRepo) List(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT entry_id, session_id, ts, strategy, attempt, success,
		       error_type, error_category, error_message, duration_ns,
		       message, changes, files_modified, rollback_performed, next_action
		FROM audit_entries
		WHERE session_id = $1
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// Sessions returns the ids of all sessions with at least one entry.
func (r *AuditRepo) Sessions(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT session_id FROM audit_entries ORDER BY session_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear removes all entries for a session.
func (r *AuditRepo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// ClearAll removes every session's entries.
func (r *AuditRepo) ClearAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_entries`); err != nil {
		return fmt.Errorf("failed to clear audit entries: %w", err)
	}
	return nil
}

func scanEntry(rows *sql.Rows) (*domain.AuditEntry, error) {
	var (
		entry      domain.AuditEntry
		ts         time.Time
		strategy   string
		errType    string
		errCat     string
		durationNs int64
		changes    []byte
		files      []byte
	)
	if err := rows.Scan(
		&entry.ID,
		&entry.SessionID,
		&ts,
		&strategy,
		&entry.Attempt,
		&entry.Success,
		&errType,
		&errCat,
		&entry.ErrorMessage,
		&durationNs,
		&entry.Message,
		&changes,
		&files,
		&entry.RollbackPerformed,
		&entry.NextAction,
	); err != nil {
		return nil, fmt.Errorf("failed to scan audit entry: %w", err)
	}

	entry.Timestamp = ts
	entry.Strategy = domain.Strategy(strategy)
	entry.ErrorType = domain.ErrorType(errType)
	entry.ErrorCategory = domain.ErrorCategory(errCat)
	entry.Duration = time.Duration(durationNs)
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &entry.FilesModified); err != nil {
			return nil, fmt.Errorf("failed to unmarshal files: %w", err)
		}
	}
	return &entry, nil
}
