package store

import (
	"context"
	"sort"
	"sync"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// InMemoryNoteStore keeps admin notes on registrations.
type InMemoryNoteStore struct {
	mu    sync.RWMutex
	notes []models.Note
}

func NewInMemoryNoteStore() *InMemoryNoteStore {
	return &InMemoryNoteStore{}
}

func (s *InMemoryNoteStore) Append(_ context.Context, note models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, note)
	return nil
}

func (s *InMemoryNoteStore) ListByRegistration(_ context.Context, regID id.RegistrationID) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Note
	for _, n := range s.notes {
		if n.RegistrationID == regID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
