package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Export formats supported by ExportTrail.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ExportTrail writes the session's full trail to a file under the export
// directory and returns its path. It fails on a session with no entries and
// on any format other than json or csv.
func (l *Ledger) ExportTrail(ctx context.Context, sessionID, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatJSON && format != FormatCSV {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	entries, err := l.repo.List(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoEntries, sessionID)
	}

	if err := os.MkdirAll(l.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	name := fmt.Sprintf("trail-%s-%s.%s", sessionID, time.Now().Format("20060102-150405"), format)
	path := filepath.Join(l.exportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return "", fmt.Errorf("failed to encode export: %w", err)
		}

	case FormatCSV:
		w := csv.NewWriter(f)
		header := []string{
			"entry_id", "session_id", "timestamp", "strategy", "attempt",
			"success", "error_type", "error_category", "error_message",
			"duration_ms", "message", "changes", "files_modified",
			"rollback_performed", "next_action",
		}
		if err := w.Write(header); err != nil {
			return "", fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, e := range entries {
			record := []string{
				e.ID,
				e.SessionID,
				e.Timestamp.Format(time.RFC3339Nano),
				string(e.Strategy),
				strconv.Itoa(e.Attempt),
				strconv.FormatBool(e.Success),
				string(e.ErrorType),
				string(e.ErrorCategory),
				e.ErrorMessage,
				strconv.FormatInt(e.Duration.Milliseconds(), 10),
				e.Message,
				strings.Join(e.Changes, "; "),
				strings.Join(e.FilesModified, "; "),
				strconv.FormatBool(e.RollbackPerformed),
				e.NextAction,
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("failed to write csv record: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to flush csv: %w", err)
		}
	}

	l.logger.Info("audit trail exported", "session", sessionID, "format", format, "path", path)
	return path, nil
}
