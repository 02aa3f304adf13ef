// Package handler exposes the registration lifecycle over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/registration/models"
	"confreg/internal/registration/service"
	"confreg/pkg/platform/httputil"
	"confreg/pkg/requestcontext"
)

// Handler handles registration endpoints. Authentication middleware runs
// before these handlers; the service re-checks capabilities on every call.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the user-facing routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.handleRegister)
	r.Get("/registrations/{id}", h.handleGet)
	r.Get("/registrations/{id}/status", h.handleStatusView)
	r.Get("/registrations/{id}/reconciliation", h.handleReconciliation)
	r.Get("/registrations/{id}/history", h.handleHistory)
	r.Get("/registrations/{id}/attachments", h.handleAttachments)
	r.Get("/conferences/{id}/my-status", h.handleMyStatus)
}

// RegisterAdmin mounts the admin transition routes. The caller wraps them in
// the admin middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/registrations/{id}/approve", h.handleApprove)
	r.Post("/registrations/{id}/deny", h.handleDeny)
	r.Patch("/registrations/{id}/status", h.handleUpdateStatus)
	r.Get("/registrations/{id}/notes", h.handleNotes)
}

func actorFrom(r *http.Request) service.Actor {
	ctx := r.Context()
	return service.Actor{ID: requestcontext.UserID(ctx), Admin: requestcontext.IsAdmin(ctx)}
}

func registrationID(r *http.Request) (id.RegistrationID, error) {
	return id.ParseRegistrationID(chi.URLParam(r, "id"))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[registerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	confID, err := id.ParseConferenceID(req.ConferenceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reg, err := h.svc.Register(ctx, actorFrom(r), confID, req.PriceCents, req.Currency)
	if err != nil {
		h.writeServiceError(w, r, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reg, err := h.svc.GetRegistration(r.Context(), regID, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "get registration", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleStatusView(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.GetStatusView(r.Context(), regID, actorFrom(r), r.URL.Query().Get("date_label"))
	if err != nil {
		h.writeServiceError(w, r, "project status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.svc.GetReconciliation(r.Context(), regID, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "reconcile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.svc.ListHistory(r.Context(), regID, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "list history", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"history": orEmptyHistory(entries)})
}

func (h *Handler) handleAttachments(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	attachments, err := h.svc.ListAttachments(r.Context(), regID, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "list attachments", err)
		return
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"attachments": attachments})
}

func (h *Handler) handleMyStatus(w http.ResponseWriter, r *http.Request) {
	confID, err := id.ParseConferenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.svc.MyStatus(r.Context(), actorFrom(r), confID, r.URL.Query().Get("date_label"))
	if err != nil {
		h.writeServiceError(w, r, "my status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Body is optional: an approve without a note is the common case.
	req := approveRequest{}
	if r.ContentLength > 0 {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[approveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	reg, err := h.svc.Approve(ctx, regID, actorFrom(r), req.Note)
	if err != nil {
		h.writeServiceError(w, r, "approve", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[denyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	reg, err := h.svc.Deny(ctx, regID, actorFrom(r), req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "deny", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[updateStatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var paymentStatus *models.PaymentStatus
	if req.PaymentStatus != nil {
		ps := models.PaymentStatus(*req.PaymentStatus)
		paymentStatus = &ps
	}

	reg, err := h.svc.UpdateStatus(ctx, regID, actorFrom(r), models.Status(req.Status), paymentStatus, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "update status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	regID, err := registrationID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	notes, err := h.svc.ListNotes(r.Context(), regID, actorFrom(r))
	if err != nil {
		h.writeServiceError(w, r, "list notes", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notes": orEmptyNotes(notes)})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "registration operation failed",
			"request_id", requestcontext.RequestID(ctx),
			"op", op,
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

// JSON list fields render as [] rather than null when empty.
func orEmptyHistory(entries []models.StatusHistoryEntry) []models.StatusHistoryEntry {
	if entries == nil {
		return []models.StatusHistoryEntry{}
	}
	return entries
}

func orEmptyNotes(notes []models.Note) []models.Note {
	if notes == nil {
		return []models.Note{}
	}
	return notes
}
