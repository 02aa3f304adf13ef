package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "confreg/pkg/domain"

	"confreg/internal/activity"
	"confreg/internal/activity/store"
	"confreg/pkg/requestcontext"
)

func newRouter(t *testing.T, mem *store.InMemoryStore, userID id.UserID) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(mem, logger)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !userID.IsNil() {
				ctx = requestcontext.WithActor(ctx, userID, false)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

type feedResponse struct {
	Records []activity.Record `json:"records"`
}

func TestMyFeed(t *testing.T) {
	alice, bob := id.NewUserID(), id.NewUserID()
	mem := store.NewInMemoryStore()
	for i, userID := range []id.UserID{alice, bob, alice} {
		require.NoError(t, mem.Append(context.Background(), activity.Record{
			ID:        id.NewActivityID(),
			Kind:      activity.KindUser,
			Title:     "Notification",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
			UserID:    userID,
		}))
	}

	t.Run("feed is scoped to the caller", func(t *testing.T) {
		router := newRouter(t, mem, alice)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/activity", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp feedResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Len(t, resp.Records, 2)
	})

	t.Run("anonymous caller gets 401", func(t *testing.T) {
		router := newRouter(t, mem, id.UserID{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/activity", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad limit gets 400", func(t *testing.T) {
		router := newRouter(t, mem, alice)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/activity?limit=0", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSystemFeed(t *testing.T) {
	mem := store.NewInMemoryStore()
	require.NoError(t, mem.Append(context.Background(), activity.Record{
		ID:        id.NewActivityID(),
		Kind:      activity.KindSystem,
		Title:     "New Conference Open",
		Type:      "conference.opened",
		CreatedAt: time.Now(),
	}))

	router := newRouter(t, mem, id.NewUserID())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activity/system", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp feedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "New Conference Open", resp.Records[0].Title)
}
