// Package handler exposes read access to the notification feed and the
// system announcement stream. Writes go through the activity logger only.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	"confreg/internal/activity/store"
	"confreg/pkg/platform/httputil"
	"confreg/pkg/requestcontext"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// Handler serves activity reads for the authenticated user.
type Handler struct {
	store  store.Store
	logger *slog.Logger
}

func New(recordStore store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: recordStore, logger: logger}
}

// Register mounts the feed routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/activity", h.handleMyFeed)
	r.Get("/activity/system", h.handleSystem)
}

func (h *Handler) handleMyFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	limit, err := feedLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	feed, err := h.store.ListUserFeed(ctx, userID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load user feed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load activity"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": orEmpty(feed)})
}

func (h *Handler) handleSystem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := feedLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.store.ListSystem(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load system activity",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load activity"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": orEmpty(records)})
}

func feedLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultFeedLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
	}
	return min(n, maxFeedLimit), nil
}

func orEmpty(records []activity.Record) []activity.Record {
	if records == nil {
		return []activity.Record{}
	}
	return records
}
