package store

import (
	"context"
	"sort"
	"sync"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// InMemoryPaymentStore keeps payment facts. This core only ever appends
// payments (in tests and seeding); the capture integration owns state
// transitions in production.
type InMemoryPaymentStore struct {
	mu       sync.RWMutex
	payments []models.Payment
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{}
}

func (s *InMemoryPaymentStore) Create(_ context.Context, p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, p)
	return nil
}

func (s *InMemoryPaymentStore) FindByID(_ context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.ID == paymentID {
			return &p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryPaymentStore) ListByRegistration(_ context.Context, regID id.RegistrationID) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.RegistrationID == regID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
