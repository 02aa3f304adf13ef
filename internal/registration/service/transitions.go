package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	regmetrics "confreg/internal/registration/metrics"
	"confreg/internal/registration/models"
	"confreg/pkg/requestcontext"
)

// Register creates a registration for the actor in the initial pending/unpaid
// state. Price and currency are captured from the conference at submission
// time and never re-read.
func (s *Service) Register(ctx context.Context, actor Actor, confID id.ConferenceID, priceCents int64, currency string) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.Register")
	defer span.End()

	if confID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "conference id is required")
	}

	reg, err := models.NewRegistration(id.NewRegistrationID(), confID, actor.ID, priceCents, currency, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "already registered for this conference")
		}
		return nil, wrapRegistrationErr(err)
	}
	regmetrics.IncTransition(string(models.StatusPending))
	span.SetAttributes(attribute.String("registration.id", reg.ID.String()))

	s.activity.NotifyUser(ctx, actor.ID, activity.UserEvent{
		Title:       "Registration Received",
		Description: "Your registration was received and is awaiting review.",
		Icon:        "inbox",
		Type:        "registration.received",
	})
	s.activity.Audit(ctx, actor.ID, activity.AppEvent{
		Title:    "Registration Created",
		Type:     "registration.created",
		Action:   activity.ActionCreated,
		Entity:   "registration",
		EntityID: reg.ID.String(),
		Category: activity.CategoryRegistration,
		Severity: activity.SeverityInfo,
	})

	return reg, nil
}

// Approve confirms a pending registration and resets its payment axis to
// unpaid, signaling that payment is now owed. Approving an already-confirmed
// registration is a no-op: no history row, no activity, just the current
// record back, so retried approvals after a timeout are safe.
func (s *Service) Approve(ctx context.Context, regID id.RegistrationID, actor Actor, note string) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.Approve",
		trace.WithAttributes(attribute.String("registration.id", regID.String())))
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireRegistrationID(regID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	note = strings.TrimSpace(note)
	reason := note
	if reason == "" {
		reason = "Approved by admin"
	}

	// One transactional scope: the status update and its trail row commit or
	// roll back together, so a failed history append can never strand a
	// confirmed registration with no pending→confirmed entry.
	var (
		reg            *models.Registration
		previous       models.Status
		shortCircuited bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.registrations.Execute(ctx, regID,
			func(r *models.Registration) error {
				already, err := r.CanApprove()
				if err != nil {
					return err
				}
				previous = r.Status
				shortCircuited = already
				return nil
			},
			func(r *models.Registration) {
				if shortCircuited {
					return
				}
				r.ApplyApproval(now)
			},
		)
		if err != nil || shortCircuited {
			return err
		}
		if err := s.history.Append(ctx, models.StatusHistoryEntry{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			PreviousStatus: previous,
			NewStatus:      models.StatusConfirmed,
			ChangedByID:    actor.ID,
			Reason:         reason,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		if note == "" {
			return nil
		}
		return s.notes.Append(ctx, models.Note{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			AuthorID:       actor.ID,
			Body:           note,
			CreatedAt:      now,
		})
	})
	if err != nil {
		regmetrics.IncRejected(rejectionReason(err))
		return nil, wrapRegistrationErr(err)
	}
	if shortCircuited {
		return reg, nil
	}
	regmetrics.IncTransition(string(models.StatusConfirmed))

	s.activity.NotifyUser(ctx, reg.UserID, activity.UserEvent{
		Title:       "Registration Approved",
		Description: "Your registration was approved. Payment is now due.",
		Icon:        "circle-check",
		Type:        "registration.approved",
		Actions: []activity.CallToAction{
			{Label: "Make Payment", Href: fmt.Sprintf("/registrations/%s/payment", reg.ID), Variant: "primary"},
			{Label: "View Details", Href: fmt.Sprintf("/registrations/%s", reg.ID), Variant: "secondary"},
		},
	})
	s.activity.Audit(ctx, actor.ID, activity.AppEvent{
		Title:    "Registration Approved",
		Type:     "registration.approved",
		Action:   activity.ActionApproved,
		Entity:   "registration",
		EntityID: reg.ID.String(),
		Category: activity.CategoryRegistration,
		Severity: activity.SeverityGood,
		Metadata: map[string]any{"previous_status": string(previous)},
	})

	return reg, nil
}

// Deny cancels a registration with a mandatory reason. The payment axis is
// left untouched so a refund workflow still sees what was paid. Denying an
// already-cancelled registration is a no-op.
func (s *Service) Deny(ctx context.Context, regID id.RegistrationID, actor Actor, reason string) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.Deny",
		trace.WithAttributes(attribute.String("registration.id", regID.String())))
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireRegistrationID(regID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		regmetrics.IncRejected("empty_reason")
		return nil, dErrors.New(dErrors.CodeValidation, "denial reason is required")
	}

	now := requestcontext.Now(ctx)
	var (
		reg            *models.Registration
		previous       models.Status
		shortCircuited bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.registrations.Execute(ctx, regID,
			func(r *models.Registration) error {
				previous = r.Status
				shortCircuited = r.CanDeny()
				return nil
			},
			func(r *models.Registration) {
				if shortCircuited {
					return
				}
				r.ApplyDenial(now)
			},
		)
		if err != nil || shortCircuited {
			return err
		}
		if err := s.history.Append(ctx, models.StatusHistoryEntry{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			PreviousStatus: previous,
			NewStatus:      models.StatusCancelled,
			ChangedByID:    actor.ID,
			Reason:         reason,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		return s.notes.Append(ctx, models.Note{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			AuthorID:       actor.ID,
			Body:           "Denied: " + reason,
			CreatedAt:      now,
		})
	})
	if err != nil {
		regmetrics.IncRejected(rejectionReason(err))
		return nil, wrapRegistrationErr(err)
	}
	if shortCircuited {
		return reg, nil
	}
	regmetrics.IncTransition(string(models.StatusCancelled))

	s.activity.NotifyUser(ctx, reg.UserID, activity.UserEvent{
		Title:       "Registration Denied",
		Description: reason,
		Icon:        "circle-x",
		Type:        "registration.denied",
		Actions: []activity.CallToAction{
			{Label: "Contact Support", Href: "/support", Variant: "primary"},
		},
	})
	s.activity.Audit(ctx, actor.ID, activity.AppEvent{
		Title:    "Registration Denied",
		Type:     "registration.denied",
		Action:   activity.ActionRejected,
		Entity:   "registration",
		EntityID: reg.ID.String(),
		Category: activity.CategoryRegistration,
		Severity: activity.SeverityWarning,
		Metadata: map[string]any{
			"previous_status": string(previous),
			"reason":          reason,
		},
	})

	return reg, nil
}

// UpdateStatus is the permissive correction path for ad-hoc admin edits. It
// validates only that the registration exists and the enum values are known;
// it appends a history row but deliberately emits no activity (the calling
// context decides whether the edit is audit-worthy). An off-invariant
// combination is allowed through with a warning, since this path exists
// precisely to repair such data.
func (s *Service) UpdateStatus(ctx context.Context, regID id.RegistrationID, actor Actor, newStatus models.Status, newPaymentStatus *models.PaymentStatus, reason string) (*models.Registration, error) {
	ctx, span := tracer.Start(ctx, "registration.UpdateStatus",
		trace.WithAttributes(attribute.String("registration.id", regID.String())))
	defer span.End()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := requireRegistrationID(regID); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", newStatus)
	}
	if newPaymentStatus != nil && !newPaymentStatus.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment status %q", *newPaymentStatus)
	}

	now := requestcontext.Now(ctx)
	var (
		reg      *models.Registration
		previous models.Status
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.registrations.Execute(ctx, regID,
			func(r *models.Registration) error {
				previous = r.Status
				return nil
			},
			func(r *models.Registration) {
				r.Status = newStatus
				if newPaymentStatus != nil {
					r.PaymentStatus = *newPaymentStatus
				}
				r.UpdatedAt = now
			},
		)
		if err != nil {
			return err
		}
		return s.history.Append(ctx, models.StatusHistoryEntry{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			PreviousStatus: previous,
			NewStatus:      newStatus,
			ChangedByID:    actor.ID,
			Reason:         strings.TrimSpace(reason),
			CreatedAt:      now,
		})
	})
	if err != nil {
		regmetrics.IncRejected(rejectionReason(err))
		return nil, wrapRegistrationErr(err)
	}
	regmetrics.IncTransition(string(newStatus))

	if !models.ValidCombination(reg.Status, reg.PaymentStatus) {
		s.logger.WarnContext(ctx, "status correction produced off-invariant combination",
			"request_id", requestcontext.RequestID(ctx),
			"registration_id", reg.ID,
			"status", reg.Status,
			"payment_status", reg.PaymentStatus,
		)
	}

	return reg, nil
}
