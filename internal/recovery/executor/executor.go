// Package executor runs the recovery cascade: for each candidate strategy it
// retries up to a bound with backoff, records every attempt in the audit
// ledger, and escalates when all candidates are exhausted.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/audit"
	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/recovery/backoff"
	"github.com/vietddude/remedy/internal/recovery/checkpoint"
	"github.com/vietddude/remedy/internal/recovery/metrics"
	"github.com/vietddude/remedy/internal/recovery/strategy"
)

// ContextKeySession carries the audit session id in the recovery context.
const ContextKeySession = "session_id"

// Config holds the cascade parameters.
type Config struct {
	// MaxAttempts bounds attempts per strategy.
	MaxAttempts int `yaml:"max_attempts"`

	// AttemptTimeout caps how long one collaborator call may run. Zero
	// disables the guard.
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// SimulateRetrySuccess makes a transient error with no retry handler
	// count as recovered. Off by default: silently masking real failures
	// must be an explicit choice.
	SimulateRetrySuccess bool `yaml:"simulate_retry_success"`

	// RollbackEnabled gates rollback as the final fallback strategy.
	RollbackEnabled bool `yaml:"rollback_enabled"`

	// AllowSkip is the default skip policy for ambiguous errors when the
	// caller's recovery context does not set one.
	AllowSkip bool `yaml:"allow_skip"`

	Backoff backoff.Policy `yaml:"backoff"`
}

// UnmarshalYAML accepts attempt_timeout in time.ParseDuration form.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		MaxAttempts          int            `yaml:"max_attempts"`
		AttemptTimeout       string         `yaml:"attempt_timeout"`
		SimulateRetrySuccess bool           `yaml:"simulate_retry_success"`
		RollbackEnabled      bool           `yaml:"rollback_enabled"`
		AllowSkip            bool           `yaml:"allow_skip"`
		Backoff              backoff.Policy `yaml:"backoff"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.MaxAttempts = raw.MaxAttempts
	c.SimulateRetrySuccess = raw.SimulateRetrySuccess
	c.RollbackEnabled = raw.RollbackEnabled
	c.AllowSkip = raw.AllowSkip
	c.Backoff = raw.Backoff
	if raw.AttemptTimeout != "" {
		d, err := time.ParseDuration(raw.AttemptTimeout)
		if err != nil {
			return fmt.Errorf("invalid attempt_timeout: %w", err)
		}
		c.AttemptTimeout = d
	}
	return nil
}

// DefaultConfig returns 3 attempts per strategy with the default backoff and
// a 2 minute attempt guard.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		AttemptTimeout: 2 * time.Minute,
		Backoff:        backoff.DefaultPolicy(),
	}
}

// Collaborators are the optional capability callbacks supplied by the
// embedding application. A nil field removes the corresponding strategy from
// candidacy.
type Collaborators struct {
	Fix         strategy.FixGenerator
	Retry       strategy.RetryHandler
	Alternative strategy.AlternativeSelector
	Rollback    strategy.RollbackHandler
	Gateway     checkpoint.Gateway
}

// Executor is the cascade state machine. One AttemptRecovery call runs on a
// single logical thread; the only suspension point is the backoff sleep
// between attempts of the same strategy.
type Executor struct {
	cfg     Config
	collab  Collaborators
	catalog *strategy.Catalog
	ledger  *audit.Ledger
	logger  *slog.Logger

	// sleep is swapped out in tests so cascades run without real waits.
	sleep func(ctx context.Context, d time.Duration)

	mu      sync.Mutex
	history []*domain.RecoveryResult
}

// New creates an executor. The ledger is required; collaborators are
// optional.
func New(cfg Config, ledger *audit.Ledger, collab Collaborators, logger *slog.Logger) *Executor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	caps := strategy.Capabilities{
		Fix:             collab.Fix != nil,
		Retry:           collab.Retry != nil || cfg.SimulateRetrySuccess,
		Alternative:     collab.Alternative != nil,
		Rollback:        collab.Rollback != nil || collab.Gateway != nil,
		RollbackEnabled: cfg.RollbackEnabled,
	}

	return &Executor{
		cfg:     cfg,
		collab:  collab,
		catalog: strategy.NewCatalog(caps),
		ledger:  ledger,
		logger:  logger,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
	}
}

// Catalog exposes the strategy catalog built from the wired capabilities.
func (ex *Executor) Catalog() *strategy.Catalog {
	return ex.catalog
}

// AttemptRecovery runs the full cascade for one error. It never returns an
// error and never panics: collaborator failures become failed attempts, and
// full exhaustion yields an escalation result.
func (ex *Executor) AttemptRecovery(ctx context.Context, e *domain.Error, rctx map[string]any) *domain.RecoveryResult {
	sessionID, _ := rctx[ContextKeySession].(string)
	sessionID = ex.ledger.StartSession(sessionID)

	if ex.cfg.AllowSkip {
		if _, set := rctx[strategy.ContextKeyAllowSkip]; !set {
			// The default is applied on a copy; the caller's map stays untouched.
			copied := make(map[string]any, len(rctx)+1)
			for k, v := range rctx {
				copied[k] = v
			}
			copied[strategy.ContextKeyAllowSkip] = true
			rctx = copied
		}
	}

	strategies := ex.catalog.SelectForError(e, rctx)
	ex.logger.Info("recovery cascade started",
		"session", sessionID,
		"error_type", e.Type,
		"category", e.Category,
		"strategies", len(strategies),
	)

	var attempts []domain.RecoveryAttempt

	for i, strat := range strategies {
		for attempt := 1; attempt <= ex.cfg.MaxAttempts; attempt++ {
			start := time.Now()
			out := ex.runStrategy(ctx, strat, e, rctx, sessionID)
			duration := time.Since(start)

			att := domain.RecoveryAttempt{
				Attempt:   attempt,
				Strategy:  strat,
				Success:   out.success,
				Error:     e,
				Changes:   out.changes,
				Timestamp: start,
				Duration:  duration,
				Message:   out.message,
			}
			if !out.success {
				// The triggering error is still outstanding after a failed
				// attempt.
				att.ResultError = e
			}
			attempts = append(attempts, att)

			result := "failure"
			if out.success {
				result = "success"
			}
			metrics.AttemptsTotal.WithLabelValues(string(strat), result).Inc()
			metrics.AttemptDuration.WithLabelValues(string(strat)).Observe(duration.Seconds())

			nextAction := ex.nextAction(out.success, attempt, i, strategies)
			if _, err := ex.ledger.LogAttempt(ctx, &att, sessionID, out.files, out.rollbackPerformed, nextAction); err != nil {
				// The trail is best-effort from the cascade's point of view;
				// a storage fault must not abort recovery.
				ex.logger.Warn("failed to log recovery attempt", "session", sessionID, "error", err)
			}

			if out.success {
				ex.logger.Info("recovery succeeded",
					"session", sessionID, "strategy", strat, "attempt", attempt)
				metrics.CascadesTotal.WithLabelValues("success").Inc()
				return ex.finish(&domain.RecoveryResult{
					Success:   true,
					SessionID: sessionID,
					Strategy:  strat,
					Attempts:  attempts,
					Message:   fmt.Sprintf("recovered via %s on attempt %d", strat, attempt),
					Timestamp: time.Now(),
				})
			}

			ex.logger.Debug("recovery attempt failed",
				"session", sessionID, "strategy", strat, "attempt", attempt, "reason", out.message)

			if attempt < ex.cfg.MaxAttempts {
				ex.sleep(ctx, backoff.Delay(attempt, ex.cfg.Backoff))
			}
		}
	}

	ex.logger.Warn("recovery exhausted, escalating",
		"session", sessionID, "error_type", e.Type, "attempts", len(attempts))
	metrics.CascadesTotal.WithLabelValues("escalated").Inc()
	metrics.EscalationsTotal.Inc()

	return ex.finish(&domain.RecoveryResult{
		Success:          false,
		SessionID:        sessionID,
		Strategy:         domain.StrategyEscalate,
		Attempts:         attempts,
		FinalError:       e,
		Message:          "all recovery strategies exhausted; human judgment required",
		EscalatedToHuman: true,
		Timestamp:        time.Now(),
	})
}

// History returns all cascade results recorded by this executor.
func (ex *Executor) History() []*domain.RecoveryResult {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	out := make([]*domain.RecoveryResult, len(ex.history))
	copy(out, ex.history)
	return out
}

func (ex *Executor) finish(r *domain.RecoveryResult) *domain.RecoveryResult {
	ex.mu.Lock()
	ex.history = append(ex.history, r)
	ex.mu.Unlock()
	return r
}

func (ex *Executor) nextAction(success bool, attempt, stratIdx int, strategies []domain.Strategy) string {
	switch {
	case success:
		return "continue"
	case attempt < ex.cfg.MaxAttempts:
		return fmt.Sprintf("retry %s", strategies[stratIdx])
	case stratIdx+1 < len(strategies):
		return fmt.Sprintf("try %s", strategies[stratIdx+1])
	default:
		return "escalate"
	}
}
