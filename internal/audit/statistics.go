package audit

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Statistics is derived from the full entry list on every call; there are no
// incremental counters that can drift from the trail.
type Statistics struct {
	SessionID          string         `json:"session_id"`
	TotalAttempts      int            `json:"total_attempts"`
	Succeeded          int            `json:"succeeded"`
	Failed             int            `json:"failed"`
	SuccessRate        float64        `json:"success_rate"`
	StrategyUsage      map[string]int `json:"strategy_usage"`
	ErrorTypes         map[string]int `json:"error_types"`
	TotalDuration      time.Duration  `json:"total_duration"`
	AverageDuration    time.Duration  `json:"average_duration"`
	FilesModified      []string       `json:"files_modified"`
	FilesModifiedCount int            `json:"files_modified_count"`
	RollbackCount      int            `json:"rollback_count"`
	FirstAttempt       time.Time      `json:"first_attempt,omitempty"`
	LastAttempt        time.Time      `json:"last_attempt,omitempty"`
}

// GetStatistics computes statistics for a session. An empty session yields
// all-zero statistics, never an error.
func (l *Ledger) GetStatistics(ctx context.Context, sessionID string) (*Statistics, error) {
	entries, err := l.repo.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return computeStatistics(sessionID, entries), nil
}

func computeStatistics(sessionID string, entries []*domain.AuditEntry) *Statistics {
	stats := &Statistics{
		SessionID:     sessionID,
		StrategyUsage: make(map[string]int),
		ErrorTypes:    make(map[string]int),
		FilesModified: []string{},
	}
	if len(entries) == 0 {
		return stats
	}

	uniqueFiles := make(map[string]bool)
	var totalDur time.Duration

	for _, e := range entries {
		stats.TotalAttempts++
		if e.Success {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.StrategyUsage[string(e.Strategy)]++
		if e.ErrorType != "" {
			stats.ErrorTypes[string(e.ErrorType)]++
		}
		totalDur += e.Duration
		for _, f := range e.FilesModified {
			uniqueFiles[f] = true
		}
		if e.RollbackPerformed {
			stats.RollbackCount++
		}
		if stats.FirstAttempt.IsZero() || e.Timestamp.Before(stats.FirstAttempt) {
			stats.FirstAttempt = e.Timestamp
		}
		if e.Timestamp.After(stats.LastAttempt) {
			stats.LastAttempt = e.Timestamp
		}
	}

	stats.TotalDuration = totalDur
	stats.AverageDuration = totalDur / time.Duration(stats.TotalAttempts)

	rate := float64(stats.Succeeded) / float64(stats.TotalAttempts) * 100
	stats.SuccessRate = math.Round(rate*100) / 100

	for f := range uniqueFiles {
		stats.FilesModified = append(stats.FilesModified, f)
	}
	sort.Strings(stats.FilesModified)
	stats.FilesModifiedCount = len(stats.FilesModified)

	return stats
}
