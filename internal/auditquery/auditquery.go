package auditquery

import (
	"log/slog"

	"confreg/internal/activity/store"
	"confreg/internal/auditquery/handler"
	"confreg/internal/auditquery/service"
)

// Service answers audit log queries.
type Service = service.Service

// Handler wires HTTP endpoints to the audit query service.
type Handler = handler.Handler

// NewService constructs the audit query service over the activity store.
func NewService(recordStore store.Store, opts ...service.Option) *Service {
	return service.New(recordStore, opts...)
}

// NewHandler constructs an HTTP handler for the admin audit routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
