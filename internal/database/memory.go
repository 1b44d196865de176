package database

import (
	"context"
	"sync"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/models"
)

// MemoryStore is a process-local store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]models.Thought
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]models.Thought)}
}

func (s *MemoryStore) FetchAll(_ context.Context, userID string) ([]models.Thought, error) {
	if userID == "" {
		return nil, apperr.NotAuthenticated("fetch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Thought, len(s.records[userID]))
	copy(out, s.records[userID])
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, userID string, thought models.Thought) error {
	if userID == "" {
		return apperr.NotAuthenticated("append")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = append(s.records[userID], thought)
	return nil
}

func (s *MemoryStore) RemoveByID(_ context.Context, userID, thoughtID string) error {
	if userID == "" {
		return apperr.NotAuthenticated("remove")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if kept, removed := withoutThought(s.records[userID], thoughtID); removed {
		s.records[userID] = kept
	}
	return nil
}
