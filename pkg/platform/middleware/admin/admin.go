package admin

import (
	"log/slog"
	"net/http"

	request "confreg/pkg/platform/middleware/request"
	"confreg/pkg/requestcontext"
)

// RequireAdmin rejects requests whose actor lacks the admin capability.
// Must run after auth.RequireAuth so the actor context is populated. The
// services behind these routes re-check the capability themselves; this
// middleware just fails fast at the transport edge.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !requestcontext.IsAdmin(ctx) {
				logger.WarnContext(ctx, "forbidden - admin capability required",
					"request_id", request.GetRequestID(ctx),
					"user_id", requestcontext.UserID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin capability required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
