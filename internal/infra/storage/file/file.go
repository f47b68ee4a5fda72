// Package file implements the audit store as one append-only JSONL log per
// session under a caller-chosen root directory.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vietddude/remedy/internal/core/domain"
)

const sessionsDir = "sessions"

// Store writes one <session>.jsonl file per session. Every append is synced
// to disk before returning, so a crash never loses acknowledged entries.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the sessions directory under root if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, sessionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions dir: %w", err)
	}
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// sessionLock returns the per-session mutex, creating it on first use.
// Appends for one session serialize on it so log lines never interleave.
func (s *Store) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

func (s *Store) sessionPath(sessionID string) string {
	return filepath.Join(s.root, sessionsDir, sanitize(sessionID)+".jsonl")
}

func (s *Store) Append(ctx context.Context, entry *domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	lock := s.sessionLock(entry.SessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(s.sessionPath(entry.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync session log: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(s.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	var entries []*domain.AuditEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("corrupt audit entry in %s: %w", sessionID, err)
		}
		entries = append(entries, &entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}
	return entries, nil
}

// Sessions returns the original session ids, recovered from the first log
// line of each file. File names are sanitized, so the stem alone cannot
// round-trip ids that contained path separators.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	dir, err := os.ReadDir(filepath.Join(s.root, sessionsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions dir: %w", err)
	}

	var ids []string
	for _, e := range dir {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		id, err := s.firstSessionID(filepath.Join(s.root, sessionsDir, name))
		if err != nil {
			return nil, err
		}
		if id == "" {
			// Empty log, nothing was ever acknowledged for it.
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) firstSessionID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return "", fmt.Errorf("corrupt audit entry in %s: %w", filepath.Base(path), err)
		}
		return entry.SessionID, nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read session log: %w", err)
	}
	return "", nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session log: %w", err)
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	ids, err := s.Sessions(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Clear(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// sanitize keeps session-derived file names free of path separators.
func sanitize(sessionID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, sessionID)
}
