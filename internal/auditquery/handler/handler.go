// Package handler exposes the admin audit log over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	"confreg/internal/auditquery/service"
	"confreg/pkg/platform/httputil"
	"confreg/pkg/requestcontext"
)

// Handler handles audit query endpoints. Mounted behind the admin middleware;
// the service re-checks the capability on every call.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the audit routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.handleList)
	r.Get("/activity/stats", h.handleStats)
}

func actorFrom(r *http.Request) service.Actor {
	ctx := r.Context()
	return service.Actor{ID: requestcontext.UserID(ctx), Admin: requestcontext.IsAdmin(ctx)}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, cursor, take, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.svc.ListAppActivity(ctx, actorFrom(r), filter, cursor, take)
	if err != nil {
		h.writeServiceError(w, r, "list audit activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context(), actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "audit stats", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// parseListQuery maps query parameters onto the store filter. Dates accept
// RFC 3339 or plain dates; a plain end date extends to end of day so the
// range stays inclusive.
func parseListQuery(r *http.Request) (activity.Filter, *id.ActivityID, int, error) {
	q := r.URL.Query()
	filter := activity.Filter{
		Type:     q.Get("type"),
		Entity:   q.Get("entity"),
		Severity: activity.Severity(q.Get("severity")),
		Category: activity.Category(q.Get("category")),
	}

	if raw := q.Get("user_id"); raw != "" {
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return activity.Filter{}, nil, 0, err
		}
		filter.UserID = userID
	}
	if raw := q.Get("start_date"); raw != "" {
		start, err := parseTime(raw, false)
		if err != nil {
			return activity.Filter{}, nil, 0, dErrors.New(dErrors.CodeValidation, "malformed start_date")
		}
		filter.StartDate = &start
	}
	if raw := q.Get("end_date"); raw != "" {
		end, err := parseTime(raw, true)
		if err != nil {
			return activity.Filter{}, nil, 0, dErrors.New(dErrors.CodeValidation, "malformed end_date")
		}
		filter.EndDate = &end
	}

	var cursor *id.ActivityID
	if raw := q.Get("cursor"); raw != "" {
		cursorID, err := id.ParseActivityID(raw)
		if err != nil {
			return activity.Filter{}, nil, 0, dErrors.New(dErrors.CodeValidation, "malformed cursor")
		}
		cursor = &cursorID
	}

	take := 0
	if raw := q.Get("take"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return activity.Filter{}, nil, 0, dErrors.New(dErrors.CodeValidation, "take must be an integer")
		}
		take = n
	}
	return filter, cursor, take, nil
}

func parseTime(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "audit query failed",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
