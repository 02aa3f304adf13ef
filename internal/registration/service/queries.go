package service

import (
	"context"
	"errors"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/registration/models"
	"confreg/internal/registration/projection"
	"confreg/internal/registration/reconcile"
	"confreg/pkg/platform/sentinel"
)

// GetRegistration returns one registration. Admins see any record; everyone
// else only their own.
func (s *Service) GetRegistration(ctx context.Context, regID id.RegistrationID, actor Actor) (*models.Registration, error) {
	if err := requireRegistrationID(regID); err != nil {
		return nil, err
	}
	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		return nil, wrapRegistrationErr(err)
	}
	if err := requireOwnerOrAdmin(reg, actor); err != nil {
		return nil, err
	}
	return reg, nil
}

// GetReconciliation computes the registration's payment position from its
// current payment set. Always computed fresh, never cached: the result is a
// consistent snapshot of whatever payments exist at query time.
func (s *Service) GetReconciliation(ctx context.Context, regID id.RegistrationID, actor Actor) (reconcile.Result, error) {
	reg, err := s.GetRegistration(ctx, regID, actor)
	if err != nil {
		return reconcile.Result{}, err
	}
	payments, err := s.payments.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return reconcile.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payments")
	}
	return reconcile.Reconcile(payments, reg.PriceCents), nil
}

// GetStatusView projects one registration into its dashboard view.
func (s *Service) GetStatusView(ctx context.Context, regID id.RegistrationID, actor Actor, conferenceDateLabel string) (projection.StatusView, error) {
	reg, err := s.GetRegistration(ctx, regID, actor)
	if err != nil {
		return projection.StatusView{}, err
	}
	rec, err := s.GetReconciliation(ctx, regID, actor)
	if err != nil {
		return projection.StatusView{}, err
	}
	return projection.ProjectStatus(reg, rec, conferenceDateLabel), nil
}

// MyStatus projects the actor's own registration for a conference. A user
// with no registration gets the not_registered view rather than an error.
func (s *Service) MyStatus(ctx context.Context, actor Actor, confID id.ConferenceID, conferenceDateLabel string) (projection.StatusView, error) {
	if confID.IsNil() {
		return projection.StatusView{}, dErrors.New(dErrors.CodeBadRequest, "conference id is required")
	}

	reg, err := s.registrations.FindByUserAndConference(ctx, actor.ID, confID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return projection.NotRegistered(conferenceDateLabel), nil
	}
	if err != nil {
		return projection.StatusView{}, wrapRegistrationErr(err)
	}

	payments, err := s.payments.ListByRegistration(ctx, reg.ID)
	if err != nil {
		return projection.StatusView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payments")
	}
	return projection.ProjectStatus(reg, reconcile.Reconcile(payments, reg.PriceCents), conferenceDateLabel), nil
}

// ListHistory returns the transition trail, newest first. Admins and the
// registration owner may read it.
func (s *Service) ListHistory(ctx context.Context, regID id.RegistrationID, actor Actor) ([]models.StatusHistoryEntry, error) {
	if _, err := s.GetRegistration(ctx, regID, actor); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRegistration(ctx, regID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load status history")
	}
	return entries, nil
}

// ListNotes returns admin notes. Notes are internal; owners never see them.
func (s *Service) ListNotes(ctx context.Context, regID id.RegistrationID, actor Actor) ([]models.Note, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireRegistrationID(regID); err != nil {
		return nil, err
	}
	if _, err := s.registrations.FindByID(ctx, regID); err != nil {
		return nil, wrapRegistrationErr(err)
	}
	notes, err := s.notes.ListByRegistration(ctx, regID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load notes")
	}
	return notes, nil
}

// ListAttachments returns the file references on a registration, newest
// first. Content lives on the file surface; only the references are tracked
// here. Admins and the registration owner may read them.
func (s *Service) ListAttachments(ctx context.Context, regID id.RegistrationID, actor Actor) ([]models.Attachment, error) {
	if _, err := s.GetRegistration(ctx, regID, actor); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByRegistration(ctx, regID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attachments")
	}
	return attachments, nil
}

func requireOwnerOrAdmin(reg *models.Registration, actor Actor) error {
	if actor.Admin {
		return nil
	}
	if !reg.UserID.IsNil() && reg.UserID == actor.ID {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "not the registration owner")
}
