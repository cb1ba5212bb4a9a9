package presence

import (
	"context"
	"sync"

	"github.com/workmesh/collab/internal/domain"
)

// MemoryStore is the single-instance CursorStore.
type MemoryStore struct {
	mu      sync.RWMutex
	cursors map[string]map[domain.UserID]domain.Cursor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cursors: make(map[string]map[domain.UserID]domain.Cursor)}
}

func (s *MemoryStore) Upsert(ctx context.Context, c domain.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.cursors[c.DocumentID]
	if !ok {
		byUser = make(map[domain.UserID]domain.Cursor)
		s.cursors[c.DocumentID] = byUser
	}
	byUser[c.UserID] = c
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, documentID string, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if byUser, ok := s.cursors[documentID]; ok {
		delete(byUser, userID)
		if len(byUser) == 0 {
			delete(s.cursors, documentID)
		}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, documentID string) ([]domain.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byUser := s.cursors[documentID]
	out := make([]domain.Cursor, 0, len(byUser))
	for _, c := range byUser {
		out = append(out, c)
	}
	return out, nil
}
