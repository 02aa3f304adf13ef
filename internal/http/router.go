// Package httpapi composes the HTTP surface: middleware chain, feature
// routers, health and metrics endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	activityhandler "confreg/internal/activity/handler"
	"confreg/internal/auditquery"
	"confreg/internal/registration"
	"confreg/pkg/platform/middleware/admin"
	"confreg/pkg/platform/middleware/auth"
	"confreg/pkg/platform/middleware/logging"
	"confreg/pkg/platform/middleware/metadata"
	"confreg/pkg/platform/middleware/request"
	"confreg/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator auth.TokenValidator
	Registrations  *registration.Handler
	Activity       *activityhandler.Handler
	AuditQuery     *auditquery.Handler
	Health         http.HandlerFunc
}

// NewRouter wires the full middleware chain and feature routes. Everything
// except health and metrics requires authentication; the /admin subtree
// additionally requires the admin capability.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(logging.AccessLog(deps.Logger))
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", deps.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.TokenValidator, deps.Logger))

		deps.Registrations.Register(r)
		deps.Activity.Register(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.RequireAdmin(deps.Logger))
			deps.Registrations.RegisterAdmin(r)
			deps.AuditQuery.Register(r)
		})
	})

	return r
}
