package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Report bundles session metadata, a summary line, full statistics and every
// entry into one document.
type Report struct {
	SessionID   string               `json:"session_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	StartedAt   time.Time            `json:"started_at,omitempty"`
	Summary     string               `json:"summary"`
	Statistics  *Statistics          `json:"statistics"`
	Entries     []*domain.AuditEntry `json:"entries"`
}

// GenerateReport writes the session report as JSON and returns its path.
// With an empty outPath the report lands beside the exports under a
// deterministic session-timestamp name.
func (l *Ledger) GenerateReport(ctx context.Context, sessionID, outPath string) (string, error) {
	entries, err := l.repo.List(ctx, sessionID)
	if err != nil {
		return "", err
	}

	s, _ := l.session(sessionID)
	report := &Report{
		SessionID:   sessionID,
		GeneratedAt: time.Now(),
		StartedAt:   s.StartedAt,
		Statistics:  computeStatistics(sessionID, entries),
		Entries:     entries,
	}
	report.Summary = fmt.Sprintf(
		"%d attempts, %d succeeded, %d failed (%.2f%% success), %d rollbacks",
		report.Statistics.TotalAttempts,
		report.Statistics.Succeeded,
		report.Statistics.Failed,
		report.Statistics.SuccessRate,
		report.Statistics.RollbackCount,
	)

	if outPath == "" {
		if err := os.MkdirAll(l.exportDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export dir: %w", err)
		}
		name := fmt.Sprintf("report-%s-%s.json", sessionID, time.Now().Format("20060102-150405"))
		outPath = filepath.Join(l.exportDir, name)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	l.logger.Info("audit report generated", "session", sessionID, "path", outPath)
	return outPath, nil
}
