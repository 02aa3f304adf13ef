package store

import (
	"context"
	"sort"
	"sync"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// InMemoryAttachmentStore keeps file references on registrations. The file
// surface writes; this engine only reads.
type InMemoryAttachmentStore struct {
	mu          sync.RWMutex
	attachments []models.Attachment
}

func NewInMemoryAttachmentStore() *InMemoryAttachmentStore {
	return &InMemoryAttachmentStore{}
}

func (s *InMemoryAttachmentStore) Append(_ context.Context, att models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = append(s.attachments, att)
	return nil
}

func (s *InMemoryAttachmentStore) ListByRegistration(_ context.Context, regID id.RegistrationID) ([]models.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Attachment
	for _, a := range s.attachments {
		if a.RegistrationID == regID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
