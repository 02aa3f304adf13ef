package registration

import (
	"log/slog"

	actlogger "confreg/internal/activity/logger"
	"confreg/internal/registration/handler"
	"confreg/internal/registration/service"
)

// Service exposes the registration lifecycle engine.
type Service = service.Service

// Handler wires HTTP endpoints to the registration service.
type Handler = handler.Handler

// Actor identifies who performs an operation.
type Actor = service.Actor

// NewService constructs the registration service with required dependencies.
func NewService(registrations service.RegistrationStore, history service.HistoryStore, notes service.NoteStore, attachments service.AttachmentStore, payments service.PaymentStore, tx service.Transactor, activity actlogger.Emitter, opts ...service.Option) *Service {
	return service.New(registrations, history, notes, attachments, payments, tx, activity, opts...)
}

// NewHandler constructs an HTTP handler for registration routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
