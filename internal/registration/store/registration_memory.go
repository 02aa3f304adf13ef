// Package store provides persistence for registrations and their satellite
// records (payments, notes, status history). Each aggregate ships an in-memory
// implementation for tests and development and a Postgres implementation for
// production; the service layer depends on interfaces only.
package store

import (
	"context"
	"sync"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// InMemoryRegistrationStore keeps registrations in a map guarded by a mutex.
type InMemoryRegistrationStore struct {
	mu   sync.RWMutex
	regs map[id.RegistrationID]models.Registration
}

func NewInMemoryRegistrationStore() *InMemoryRegistrationStore {
	return &InMemoryRegistrationStore{regs: make(map[id.RegistrationID]models.Registration)}
}

// Create persists a new registration. A duplicate id is a conflict.
func (s *InMemoryRegistrationStore) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[reg.ID]; exists {
		return sentinel.ErrConflict
	}
	s.regs[reg.ID] = *reg
	return nil
}

func (s *InMemoryRegistrationStore) FindByID(_ context.Context, regID id.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reg, nil
}

// FindByUserAndConference returns the user's registration for one conference,
// or sentinel.ErrNotFound when the user never registered.
func (s *InMemoryRegistrationStore) FindByUserAndConference(_ context.Context, userID id.UserID, confID id.ConferenceID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, reg := range s.regs {
		if reg.UserID == userID && reg.ConferenceID == confID {
			return &reg, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Execute validates then mutates the registration atomically: both callbacks
// run under the store lock against current state, and the result is persisted
// only when validation passes. A rejected transition leaves the stored row
// untouched.
func (s *InMemoryRegistrationStore) Execute(_ context.Context, regID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.regs[regID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&reg); err != nil {
		return nil, err
	}
	mutate(&reg)
	s.regs[regID] = reg
	return &reg, nil
}
