package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/remedy/internal/audit"
	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/storage/memory"
	"github.com/vietddude/remedy/internal/recovery/backoff"
	"github.com/vietddude/remedy/internal/recovery/checkpoint"
	"github.com/vietddude/remedy/internal/recovery/strategy"
)

// =============================================================================
// Test Fixtures
// =============================================================================

func testConfig() Config {
	return Config{
		MaxAttempts: 3,
		Backoff:     backoff.Policy{Base: time.Millisecond, Multiplier: 2.0, MaxDelay: 10 * time.Millisecond},
	}
}

func newTestExecutor(t *testing.T, cfg Config, collab Collaborators) (*Executor, *audit.Ledger) {
	t.Helper()
	ledger := audit.NewLedger(memory.NewStore(), t.TempDir(), nil)
	ex := New(cfg, ledger, collab, nil)
	ex.sleep = func(ctx context.Context, d time.Duration) {}
	return ex, ledger
}

type mockGateway struct {
	mu        sync.Mutex
	rollbacks []string
	ok        bool
}

func (g *mockGateway) CreateSnapshot(ctx context.Context, sessionID, desc string, md map[string]any) (checkpoint.Handle, error) {
	return checkpoint.Handle{ID: "snap-1"}, nil
}

func (g *mockGateway) RollbackTo(ctx context.Context, sessionID string, h checkpoint.Handle) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rollbacks = append(g.rollbacks, h.ID)
	return g.ok, nil
}

func transientError() *domain.Error {
	return domain.NewError(domain.ErrTimeout, domain.CategoryTransient, "timed out", "network")
}

// =============================================================================
// Cascade Semantics
// =============================================================================

func TestAttemptRecovery_RetrySucceedsOnThird(t *testing.T) {
	calls := 0
	retry := strategy.RetryHandlerFunc(func(ctx context.Context, e *domain.Error) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	ex, ledger := newTestExecutor(t, testConfig(), Collaborators{Retry: retry})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s1"})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Strategy != domain.StrategyRetry {
		t.Errorf("expected retry strategy, got %s", result.Strategy)
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(result.Attempts))
	}
	if !result.Attempts[2].Success || result.Attempts[0].Success || result.Attempts[1].Success {
		t.Errorf("expected only the third attempt to succeed: %+v", result.Attempts)
	}
	for i, att := range result.Attempts[:2] {
		if att.ResultError == nil {
			t.Errorf("failed attempt %d must carry the outstanding error", i+1)
		}
	}
	if result.Attempts[2].ResultError != nil {
		t.Errorf("succeeding attempt must not carry a result error: %+v", result.Attempts[2].ResultError)
	}
	if result.EscalatedToHuman {
		t.Error("successful cascade must not escalate")
	}

	// Every attempt is mirrored into the audit trail.
	entries, err := ledger.GetHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(entries) != len(result.Attempts) {
		t.Errorf("expected %d audit entries, got %d", len(result.Attempts), len(entries))
	}
}

// Success on strategy k, attempt m logs exactly (k-1)*maxAttempts+m attempts
// and never touches later strategies.
func TestAttemptRecovery_AttemptCounting(t *testing.T) {
	fix := strategy.FixGeneratorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
		return "", errors.New("model unavailable")
	})
	altCalls := 0
	alt := strategy.AlternativeSelectorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
		altCalls++
		if altCalls < 2 {
			return "", errors.New("no candidate yet")
		}
		return "use the streaming parser", nil
	})

	ex, _ := newTestExecutor(t, testConfig(), Collaborators{Fix: fix, Alternative: alt})

	e := domain.NewError(domain.ErrTestFailure, domain.CategoryPermanent, "tests failed", "test")
	result := ex.AttemptRecovery(context.Background(), e, map[string]any{ContextKeySession: "s2"})

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	// Strategy 2 (alternative), attempt 2: (2-1)*3 + 2 = 5.
	if len(result.Attempts) != 5 {
		t.Fatalf("expected 5 attempts, got %d", len(result.Attempts))
	}
	if result.Strategy != domain.StrategyAlternative {
		t.Errorf("expected alternative, got %s", result.Strategy)
	}
	last := result.Attempts[len(result.Attempts)-1]
	if last.Attempt != 2 {
		t.Errorf("expected per-strategy attempt number 2, got %d", last.Attempt)
	}
	if len(last.Changes) != 1 || !strings.Contains(last.Changes[0], "streaming parser") {
		t.Errorf("expected selection recorded as change, got %v", last.Changes)
	}
}

func TestAttemptRecovery_Exhaustion(t *testing.T) {
	fix := strategy.FixGeneratorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
		return "", errors.New("down")
	})
	alt := strategy.AlternativeSelectorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
		return "", errors.New("down")
	})

	ex, ledger := newTestExecutor(t, testConfig(), Collaborators{Fix: fix, Alternative: alt})

	e := domain.NewError(domain.ErrCodeQuality, domain.CategoryPermanent, "lint failed", "test")
	result := ex.AttemptRecovery(context.Background(), e, map[string]any{ContextKeySession: "s3"})

	if result.Success {
		t.Fatal("expected failure")
	}
	if !result.EscalatedToHuman {
		t.Error("expected escalation flag")
	}
	if result.Strategy != domain.StrategyEscalate {
		t.Errorf("expected escalate marker, got %s", result.Strategy)
	}
	if result.FinalError == nil || result.FinalError.ID != e.ID {
		t.Errorf("expected final error carried, got %+v", result.FinalError)
	}
	// Two strategies, three attempts each.
	if len(result.Attempts) != 6 {
		t.Fatalf("expected 6 attempts, got %d", len(result.Attempts))
	}

	entries, _ := ledger.GetHistory(context.Background(), "s3")
	if len(entries) != 6 {
		t.Errorf("expected 6 audit entries, got %d", len(entries))
	}
	if entries[len(entries)-1].NextAction != "escalate" {
		t.Errorf("expected terminal next action escalate, got %q", entries[len(entries)-1].NextAction)
	}
}

// A permanent error without a checkpoint selects alternative only; with no
// selector wired the cascade escalates without ever calling the fix
// generator. This holds for every permanent type outside the biased
// code_quality/test_failure/dependency sub-types.
func TestAttemptRecovery_StrategyOrderingHonored(t *testing.T) {
	for _, errType := range []domain.ErrorType{domain.ErrSyntax, domain.ErrUnknown} {
		fixCalled := false
		fix := strategy.FixGeneratorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
			fixCalled = true
			return "- patch it", nil
		})

		ex, _ := newTestExecutor(t, testConfig(), Collaborators{Fix: fix})

		e := domain.NewError(errType, domain.CategoryPermanent, "broken artifact", "subprocess")
		result := ex.AttemptRecovery(context.Background(), e, map[string]any{ContextKeySession: "s4"})

		if result.Success {
			t.Fatalf("%s: expected escalation", errType)
		}
		if len(result.Attempts) != 0 {
			t.Errorf("%s: expected no attempts, got %d", errType, len(result.Attempts))
		}
		if fixCalled {
			t.Errorf("%s: fix generator must not be called for a permanent error", errType)
		}
	}
}

func TestAttemptRecovery_StopsAfterSuccess(t *testing.T) {
	retry := strategy.RetryHandlerFunc(func(ctx context.Context, e *domain.Error) (bool, error) {
		return true, nil
	})
	fixCalled := false
	fix := strategy.FixGeneratorFunc(func(ctx context.Context, e *domain.Error) (string, error) {
		fixCalled = true
		return "- patch", nil
	})

	ex, _ := newTestExecutor(t, testConfig(), Collaborators{Retry: retry, Fix: fix})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s5"})

	if !result.Success || len(result.Attempts) != 1 {
		t.Fatalf("expected immediate success, got %+v", result)
	}
	if fixCalled {
		t.Error("later strategies must not run after success")
	}
}

// =============================================================================
// Failure Boundary
// =============================================================================

func TestAttemptRecovery_CollaboratorPanic(t *testing.T) {
	retry := strategy.RetryHandlerFunc(func(ctx context.Context, e *domain.Error) (bool, error) {
		panic("collaborator bug")
	})

	ex, _ := newTestExecutor(t, testConfig(), Collaborators{Retry: retry})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s6"})

	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(result.Attempts))
	}
	if !strings.Contains(result.Attempts[0].Message, "panic") {
		t.Errorf("expected panic recorded, got %q", result.Attempts[0].Message)
	}
}

func TestAttemptRecovery_AttemptTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	cfg.AttemptTimeout = 10 * time.Millisecond

	retry := strategy.RetryHandlerFunc(func(ctx context.Context, e *domain.Error) (bool, error) {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return false, ctx.Err()
	})

	ex, _ := newTestExecutor(t, cfg, Collaborators{Retry: retry})

	start := time.Now()
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s7"})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("attempt guard did not fire, took %v", elapsed)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Attempts[0].Message, "aborted") {
		t.Errorf("expected aborted message, got %q", result.Attempts[0].Message)
	}
}

// =============================================================================
// Policy Flags
// =============================================================================

func TestAttemptRecovery_SimulatedRetrySuccess(t *testing.T) {
	cfg := testConfig()
	cfg.SimulateRetrySuccess = true

	ex, _ := newTestExecutor(t, cfg, Collaborators{})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s8"})

	if !result.Success {
		t.Fatalf("expected simulated success, got %+v", result)
	}
	if !strings.Contains(result.Attempts[0].Message, "simulated") {
		t.Errorf("expected simulated marker in message, got %q", result.Attempts[0].Message)
	}
}

// The configured skip default reaches the catalog without leaking into the
// caller's recovery context.
func TestAttemptRecovery_AllowSkipDefault(t *testing.T) {
	cfg := testConfig()
	cfg.AllowSkip = true

	ex, _ := newTestExecutor(t, cfg, Collaborators{})

	e := domain.NewError(domain.ErrUnknown, domain.CategoryAmbiguous, "something failed", "subprocess")
	rctx := map[string]any{ContextKeySession: "s13"}
	result := ex.AttemptRecovery(context.Background(), e, rctx)

	if !result.Success || result.Strategy != domain.StrategySkipAndContinue {
		t.Fatalf("expected skip_and_continue success, got %+v", result)
	}
	if _, leaked := rctx[strategy.ContextKeyAllowSkip]; leaked {
		t.Error("caller context must not be mutated")
	}
}

func TestAttemptRecovery_NoSimulationByDefault(t *testing.T) {
	ex, _ := newTestExecutor(t, testConfig(), Collaborators{})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s9"})

	if result.Success {
		t.Fatal("transient error with no handler must not auto-succeed")
	}
	if !result.EscalatedToHuman {
		t.Error("expected escalation")
	}
}

// =============================================================================
// Rollback
// =============================================================================

func TestAttemptRecovery_GatewayRollback(t *testing.T) {
	gw := &mockGateway{ok: true}

	ex, ledger := newTestExecutor(t, testConfig(), Collaborators{Gateway: gw})

	e := domain.NewError(domain.ErrUnknown, domain.CategoryPermanent, "bad state", "filesystem")
	rctx := map[string]any{
		ContextKeySession:             "s10",
		strategy.ContextKeyCheckpoint: "cp-42",
	}
	result := ex.AttemptRecovery(context.Background(), e, rctx)

	if !result.Success || result.Strategy != domain.StrategyRollback {
		t.Fatalf("expected rollback success, got %+v", result)
	}
	if len(gw.rollbacks) != 1 || gw.rollbacks[0] != "cp-42" {
		t.Errorf("expected rollback to cp-42, got %v", gw.rollbacks)
	}

	entries, _ := ledger.GetHistory(context.Background(), "s10")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].RollbackPerformed {
		t.Error("expected rollback_performed set")
	}
	found := false
	for _, f := range entries[0].FilesModified {
		if strings.Contains(f, "cp-42") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected checkpoint handle surfaced, got %v", entries[0].FilesModified)
	}
}

// A cascade without a caller-supplied session id still yields a queryable
// trail: the generated id is surfaced on the result.
func TestAttemptRecovery_GeneratedSessionID(t *testing.T) {
	retry := strategy.RetryHandlerFunc(func(ctx context.Context, e *domain.Error) (bool, error) {
		return false, errors.New("still down")
	})

	ex, ledger := newTestExecutor(t, testConfig(), Collaborators{Retry: retry})
	result := ex.AttemptRecovery(context.Background(), transientError(), nil)

	if result.SessionID == "" {
		t.Fatal("expected a generated session id on the result")
	}
	entries, err := ledger.GetHistory(context.Background(), result.SessionID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(entries) != len(result.Attempts) {
		t.Errorf("expected %d entries under the generated id, got %d", len(result.Attempts), len(entries))
	}
}

func TestAttemptRecovery_ExplicitSessionIDCarried(t *testing.T) {
	ex, _ := newTestExecutor(t, testConfig(), Collaborators{})
	result := ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s12"})

	if result.SessionID != "s12" {
		t.Errorf("expected session id s12, got %q", result.SessionID)
	}
}

func TestHistory(t *testing.T) {
	ex, _ := newTestExecutor(t, testConfig(), Collaborators{})

	ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s11"})
	ex.AttemptRecovery(context.Background(), transientError(), map[string]any{ContextKeySession: "s11"})

	if got := len(ex.History()); got != 2 {
		t.Errorf("expected 2 results in history, got %d", got)
	}
}
