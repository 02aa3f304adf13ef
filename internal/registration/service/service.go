// Package service implements the registration lifecycle engine: submission,
// admin approval and denial, ad-hoc status corrections, and the read side
// (payment reconciliation, dashboard projection, history, notes).
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	actlogger "confreg/internal/activity/logger"
	regmetrics "confreg/internal/registration/metrics"
	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

var tracer = otel.Tracer("confreg/internal/registration")

// Actor identifies who is performing an operation. Threaded explicitly
// through every call; the service never reads identity from ambient state.
type Actor struct {
	ID    id.UserID
	Admin bool
}

// RegistrationStore persists the registration aggregate. Execute must run
// validate and mutate atomically against current state (mutex in memory, row
// lock in Postgres).
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, regID id.RegistrationID) (*models.Registration, error)
	FindByUserAndConference(ctx context.Context, userID id.UserID, confID id.ConferenceID) (*models.Registration, error)
	Execute(ctx context.Context, regID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error)
}

// HistoryStore persists the append-only transition trail.
type HistoryStore interface {
	Append(ctx context.Context, entry models.StatusHistoryEntry) error
	ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.StatusHistoryEntry, error)
}

// NoteStore persists admin notes.
type NoteStore interface {
	Append(ctx context.Context, note models.Note) error
	ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Note, error)
}

// PaymentStore reads payment facts for reconciliation.
type PaymentStore interface {
	ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Payment, error)
}

// AttachmentStore reads file references. Uploads happen on the file surface;
// this engine only lists what is attached.
type AttachmentStore interface {
	ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Attachment, error)
}

// Transactor scopes a unit of work: a database transaction in Postgres, a
// coarse lock in memory. A transition and its history row run inside one
// scope so the trail can never lose a committed transition.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates registration transitions and reads.
type Service struct {
	registrations RegistrationStore
	history       HistoryStore
	notes         NoteStore
	attachments   AttachmentStore
	payments      PaymentStore
	tx            Transactor
	activity      actlogger.Emitter
	logger        *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs a Service. The activity emitter is mandatory: every
// transition is an audit call site.
func New(registrations RegistrationStore, history HistoryStore, notes NoteStore, attachments AttachmentStore, payments PaymentStore, tx Transactor, activity actlogger.Emitter, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		history:       history,
		notes:         notes,
		attachments:   attachments,
		payments:      payments,
		tx:            tx,
		activity:      activity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireAdmin(actor Actor) error {
	if !actor.Admin {
		regmetrics.IncRejected("forbidden")
		return dErrors.New(dErrors.CodeForbidden, "admin capability required")
	}
	return nil
}

func requireRegistrationID(regID id.RegistrationID) error {
	if regID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "registration id is required")
	}
	return nil
}

// rejectionReason classifies a failed transition for the rejection counter,
// so infrastructure failures and missing records do not masquerade as
// invalid transitions.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found"
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return "invalid_transition"
	default:
		return "internal"
	}
}

func wrapRegistrationErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "registration operation failed")
}
