package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

func entry(session string, attempt int, success bool) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:        fmt.Sprintf("%s-e%d", session, attempt),
		SessionID: session,
		Timestamp: time.Now(),
		Strategy:  domain.StrategyRetry,
		Attempt:   attempt,
		Success:   success,
		Message:   "test entry",
	}
}

// =============================================================================
// Append / List
// =============================================================================

func TestStore_AppendListRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if err := s.Append(ctx, entry("s1", i, i == 5)); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	entries, err := s.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	// Order on disk is append order.
	for i, e := range entries {
		if e.Attempt != i+1 {
			t.Errorf("entry %d out of order: attempt %d", i, e.Attempt)
		}
	}
	if !entries[4].Success {
		t.Error("expected last entry successful")
	}
}

func TestStore_ListMissingSession(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}

	entries, err := s.List(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("expected nil error for missing session, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestStore_SessionIsolation(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ctx := context.Background()

	if err := s.Append(ctx, entry("alpha", 1, true)); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.Append(ctx, entry("beta", 1, false)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	a, _ := s.List(ctx, "alpha")
	b, _ := s.List(ctx, "beta")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected 1 entry each, got %d and %d", len(a), len(b))
	}
	if a[0].SessionID != "alpha" || b[0].SessionID != "beta" {
		t.Error("entries leaked across sessions")
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0] != "alpha" || sessions[1] != "beta" {
		t.Errorf("expected sorted [alpha beta], got %v", sessions)
	}
}

// =============================================================================
// Clear
// =============================================================================

func TestStore_Clear(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ctx := context.Background()

	s.Append(ctx, entry("s1", 1, true))
	s.Append(ctx, entry("s2", 1, true))

	if err := s.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sessions", "s1.jsonl")); !os.IsNotExist(err) {
		t.Error("expected s1 log removed")
	}
	if err := s.Clear(ctx, "s1"); err != nil {
		t.Errorf("clearing a cleared session must be a no-op, got %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear all failed: %v", err)
	}
	sessions, _ := s.Sessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("expected no sessions after clear all, got %v", sessions)
	}
}

// =============================================================================
// File Names
// =============================================================================

func TestStore_SanitizesSessionIDs(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("new store failed: %v", err)
	}
	ctx := context.Background()

	if err := s.Append(ctx, entry("../escape/attempt", 1, true)); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	files, err := os.ReadDir(filepath.Join(root, "sessions"))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if name := files[0].Name(); name != ".._escape_attempt.jsonl" {
		t.Errorf("unexpected sanitized name %q", name)
	}

	entries, err := s.List(ctx, "../escape/attempt")
	if err != nil || len(entries) != 1 {
		t.Errorf("expected the entry back via the raw id, got %d entries, err %v", len(entries), err)
	}

	// Sessions reports the original id, not the sanitized file stem.
	ids, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "../escape/attempt" {
		t.Fatalf("expected the raw id back, got %v", ids)
	}

	if err := s.Clear(ctx, ids[0]); err != nil {
		t.Fatalf("clear via listed id failed: %v", err)
	}
	ids, err = s.Sessions(ctx)
	if err != nil {
		t.Fatalf("sessions after clear failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no sessions after clear, got %v", ids)
	}
}
