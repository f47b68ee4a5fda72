// Package memory provides an in-memory audit store for tests and ephemeral
// runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/remedy/internal/core/domain"
)

// Store keeps per-session entry slices guarded by a single mutex.
type Store struct {
	entries map[string][]*domain.AuditEntry
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string][]*domain.AuditEntry),
	}
}

func (s *Store) Append(ctx context.Context, entry *domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.SessionID] = append(s.entries[entry.SessionID], entry)
	return nil
}

func (s *Store) List(ctx context.Context, sessionID string) ([]*domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.AuditEntry, len(s.entries[sessionID]))
	copy(out, s.entries[sessionID])
	return out, nil
}

func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entries))
	for id, entries := range s.entries {
		if len(entries) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]*domain.AuditEntry)
	return nil
}
