package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "confreg/pkg/domain"

	actlogger "confreg/internal/activity/logger"
	actstore "confreg/internal/activity/store"
	"confreg/internal/registration/models"
	"confreg/internal/registration/service"
	"confreg/internal/registration/store"
	"confreg/pkg/requestcontext"
)

type env struct {
	router        http.Handler
	registrations *store.InMemoryRegistrationStore
	attachments   *store.InMemoryAttachmentStore
	payments      *store.InMemoryPaymentStore
	activity      *actstore.InMemoryStore
}

// newEnv wires the full stack against in-memory stores. The actAs middleware
// stands in for the auth layer by placing the actor in the request context.
func newEnv(t *testing.T, actorID id.UserID, admin bool) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	e := &env{
		registrations: store.NewInMemoryRegistrationStore(),
		attachments:   store.NewInMemoryAttachmentStore(),
		payments:      store.NewInMemoryPaymentStore(),
		activity:      actstore.NewInMemoryStore(),
	}
	svc := service.New(
		e.registrations,
		store.NewInMemoryHistoryStore(),
		store.NewInMemoryNoteStore(),
		e.attachments,
		e.payments,
		store.NewInMemoryTransactor(),
		actlogger.New(e.activity, logger),
		service.WithLogger(logger),
	)
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Use(actAs(actorID, admin))
	h.Register(r)
	r.Route("/admin", func(r chi.Router) {
		h.RegisterAdmin(r)
	})
	e.router = r
	return e
}

func actAs(actorID id.UserID, admin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(r.Context(), actorID, admin)))
		})
	}
}

func (e *env) seed(t *testing.T, userID id.UserID, status models.Status) *models.Registration {
	t.Helper()
	reg, err := models.NewRegistration(id.NewRegistrationID(), id.NewConferenceID(), userID, 15000, "EUR", time.Now())
	require.NoError(t, err)
	reg.Status = status
	require.NoError(t, e.registrations.Create(t.Context(), reg))
	return reg
}

func do(t *testing.T, router http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestApproveEndpoint(t *testing.T) {
	adminID := id.NewUserID()
	userID := id.NewUserID()

	t.Run("approves a pending registration", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, userID, models.StatusPending)

		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/approve", `{"note":"vip"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.Registration
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, models.StatusConfirmed, resp.Status)
		assert.Equal(t, models.PaymentUnpaid, resp.PaymentStatus)

		// Both activity channels got a record.
		feed, err := e.activity.ListUserFeed(t.Context(), userID, 10)
		require.NoError(t, err)
		assert.Len(t, feed, 1)
	})

	t.Run("approve without a body succeeds", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, userID, models.StatusPending)

		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/approve", "")
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("non-admin actor gets 403", func(t *testing.T) {
		e := newEnv(t, userID, false)
		reg := e.seed(t, userID, models.StatusPending)

		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/approve", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown registration gets 404", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+id.NewRegistrationID().String()+"/approve", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id gets 400", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		rec := do(t, e.router, http.MethodPost, "/admin/registrations/not-a-uuid/approve", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDenyEndpoint(t *testing.T) {
	adminID := id.NewUserID()

	t.Run("denies with a reason", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, id.NewUserID(), models.StatusPending)

		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/deny", `{"reason":"not a member"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.Registration
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, models.StatusCancelled, resp.Status)
	})

	t.Run("empty reason gets 400", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, id.NewUserID(), models.StatusPending)

		rec := do(t, e.router, http.MethodPost, "/admin/registrations/"+reg.ID.String()+"/deny", `{"reason":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	adminID := id.NewUserID()

	t.Run("corrects the payment axis", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, id.NewUserID(), models.StatusConfirmed)

		rec := do(t, e.router, http.MethodPatch, "/admin/registrations/"+reg.ID.String()+"/status",
			`{"status":"confirmed","payment_status":"paid","reason":"manual check"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.Registration
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, models.PaymentPaid, resp.PaymentStatus)
	})

	t.Run("unknown enum gets 400", func(t *testing.T) {
		e := newEnv(t, adminID, true)
		reg := e.seed(t, id.NewUserID(), models.StatusPending)

		rec := do(t, e.router, http.MethodPatch, "/admin/registrations/"+reg.ID.String()+"/status", `{"status":"archived"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusViewEndpoint(t *testing.T) {
	userID := id.NewUserID()

	t.Run("owner sees the projected view with reconciled amounts", func(t *testing.T) {
		e := newEnv(t, userID, false)
		reg := e.seed(t, userID, models.StatusConfirmed)
		reg, err := e.registrations.Execute(t.Context(), reg.ID,
			func(*models.Registration) error { return nil },
			func(r *models.Registration) { r.PaymentStatus = models.PaymentPartial },
		)
		require.NoError(t, err)
		require.NoError(t, e.payments.Create(t.Context(), models.Payment{
			ID: id.NewPaymentID(), RegistrationID: reg.ID, AmountCents: 5000, Currency: "EUR",
			State: models.PaymentStateSucceeded, CreatedAt: time.Now(),
		}))

		rec := do(t, e.router, http.MethodGet, "/registrations/"+reg.ID.String()+"/status", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var view struct {
			State   string `json:"state"`
			Title   string `json:"title"`
			Actions struct {
				Primary string `json:"primary"`
			} `json:"available_actions"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		assert.Equal(t, "confirmed", view.State)
		assert.Equal(t, "Complete Payment", view.Actions.Primary)
	})

	t.Run("stranger gets 403, not an empty view", func(t *testing.T) {
		e := newEnv(t, id.NewUserID(), false)
		reg := e.seed(t, userID, models.StatusPending)

		rec := do(t, e.router, http.MethodGet, "/registrations/"+reg.ID.String()+"/status", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unregistered user gets the not_registered view", func(t *testing.T) {
		e := newEnv(t, userID, false)
		rec := do(t, e.router, http.MethodGet, "/conferences/"+id.NewConferenceID().String()+"/my-status", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var view struct {
			State string `json:"state"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		assert.Equal(t, "not_registered", view.State)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	userID := id.NewUserID()

	t.Run("creates a pending registration", func(t *testing.T) {
		e := newEnv(t, userID, false)
		body := `{"conference_id":"` + id.NewConferenceID().String() + `","price_cents":25000,"currency":"EUR"}`

		rec := do(t, e.router, http.MethodPost, "/registrations", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp models.Registration
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, models.StatusPending, resp.Status)
		assert.Equal(t, userID, resp.UserID)
	})

	t.Run("missing conference id gets 400", func(t *testing.T) {
		e := newEnv(t, userID, false)
		rec := do(t, e.router, http.MethodPost, "/registrations", `{"price_cents":100,"currency":"EUR"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAttachmentsEndpoint(t *testing.T) {
	userID := id.NewUserID()

	t.Run("owner lists file references newest first", func(t *testing.T) {
		e := newEnv(t, userID, false)
		reg := e.seed(t, userID, models.StatusConfirmed)
		require.NoError(t, e.attachments.Append(t.Context(), models.Attachment{
			ID:             id.NewNoteID(),
			RegistrationID: reg.ID,
			FileName:       "invoice.pdf",
			ContentType:    "application/pdf",
			SizeBytes:      2048,
			CreatedAt:      time.Now(),
		}))

		rec := do(t, e.router, http.MethodGet, "/registrations/"+reg.ID.String()+"/attachments", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Attachments []models.Attachment `json:"attachments"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Attachments, 1)
		assert.Equal(t, "invoice.pdf", resp.Attachments[0].FileName)
	})

	t.Run("no attachments renders an empty list", func(t *testing.T) {
		e := newEnv(t, userID, false)
		reg := e.seed(t, userID, models.StatusPending)

		rec := do(t, e.router, http.MethodGet, "/registrations/"+reg.ID.String()+"/attachments", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"attachments":[]}`, rec.Body.String())
	})

	t.Run("stranger gets 403", func(t *testing.T) {
		e := newEnv(t, userID, false)
		reg := e.seed(t, id.NewUserID(), models.StatusConfirmed)

		rec := do(t, e.router, http.MethodGet, "/registrations/"+reg.ID.String()+"/attachments", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
