package store

import (
	"context"
	"sort"
	"sync"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// InMemoryHistoryStore keeps the append-only status transition trail.
type InMemoryHistoryStore struct {
	mu      sync.RWMutex
	entries []models.StatusHistoryEntry
}

func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{}
}

func (s *InMemoryHistoryStore) Append(_ context.Context, entry models.StatusHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// ListByRegistration returns the trail newest first.
func (s *InMemoryHistoryStore) ListByRegistration(_ context.Context, regID id.RegistrationID) ([]models.StatusHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.StatusHistoryEntry
	for _, e := range s.entries {
		if e.RegistrationID == regID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
