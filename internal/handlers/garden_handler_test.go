package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"whispers/backend/internal/apperr"
	"whispers/backend/internal/database"
	"whispers/backend/internal/garden"
	"whispers/backend/internal/middleware"
	"whispers/backend/internal/models"
)

// flakyStore fails the operations it is told to fail.
type flakyStore struct {
	*database.MemoryStore
	fetchErr  error
	appendErr error
}

func (s *flakyStore) FetchAll(ctx context.Context, userID string) ([]models.Thought, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.MemoryStore.FetchAll(ctx, userID)
}

func (s *flakyStore) Append(ctx context.Context, userID string, thought models.Thought) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.MemoryStore.Append(ctx, userID, thought)
}

func newTestRouter(store garden.Store) (*gin.Engine, *garden.Registry) {
	gin.SetMode(gin.TestMode)
	gardens := garden.NewRegistry(store, zap.NewNop(), garden.Options{})
	router := NewRouter(RouterConfig{
		Gardens:        gardens,
		Auth:           middleware.DebugAuthMiddleware(),
		Logger:         zap.NewNop(),
		RequestTimeout: time.Second,
	})
	return router, gardens
}

func do(t *testing.T, router *gin.Engine, method, path, user, body string) (*httptest.ResponseRecorder, garden.Snapshot) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set(middleware.DebugUserHeader, user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var snap garden.Snapshot
	if w.Code < 400 || strings.Contains(w.Body.String(), `"state"`) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	}
	return w, snap
}

func TestGardenRoutes_RequireSession(t *testing.T) {
	router, _ := newTestRouter(database.NewMemoryStore())

	w, _ := do(t, router, http.MethodGet, "/api/v1/garden", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGardenRoutes_PlantListDelete(t *testing.T) {
	router, gardens := newTestRouter(database.NewMemoryStore())

	w, snap := do(t, router, http.MethodGet, "/api/v1/garden", "rose", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, garden.StateEmpty, snap.State)

	w, snap = do(t, router, http.MethodPost, "/api/v1/garden/thoughts", "rose", `{"text":"I feel so happy today"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, snap.Planted)
	assert.Equal(t, models.CategoryHappy, snap.Planted.Category)
	assert.Equal(t, garden.StateReady, snap.State)
	assert.Equal(t, 1, snap.Counts[models.CategoryHappy])
	plantedID := snap.Planted.ID

	w, snap = do(t, router, http.MethodPost, "/api/v1/garden/thoughts", "rose", `{"text":"   "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, snap.Planted)
	assert.Len(t, snap.Thoughts, 1)

	for _, body := range []string{`{}`, `{"text":""}`} {
		w, snap = do(t, router, http.MethodPost, "/api/v1/garden/thoughts", "rose", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.Nil(t, snap.Planted, body)
		assert.Nil(t, snap.Notice, body)
		assert.Len(t, snap.Thoughts, 1, body)
	}

	w, _ = do(t, router, http.MethodPost, "/api/v1/garden/thoughts", "rose", `{"text":"`+strings.Repeat("a", 2001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, snap = do(t, router, http.MethodGet, "/api/v1/garden/state", "rose", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, snap.Thoughts, 1)

	w, snap = do(t, router, http.MethodDelete, "/api/v1/garden/thoughts/"+plantedID, "rose", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, garden.StateEmpty, snap.State)
	assert.Nil(t, snap.Notice)

	_, snap = do(t, router, http.MethodGet, "/api/v1/garden", "rose", "")
	assert.Empty(t, snap.Thoughts)

	_, snap = do(t, router, http.MethodGet, "/api/v1/garden", "lily", "")
	assert.Equal(t, garden.StateEmpty, snap.State)
	assert.Equal(t, 2, gardens.Len())
}

func TestGardenRoutes_FailedPlantIsReportedAndRefreshed(t *testing.T) {
	store := &flakyStore{MemoryStore: database.NewMemoryStore()}
	require.NoError(t, store.MemoryStore.Append(context.Background(), "rose", models.Thought{
		ID: "1", Text: "calm", CreatedAt: "2024-01-01T00:00:00.000Z", Category: models.CategoryPeaceful,
	}))
	router, _ := newTestRouter(store)

	_, snap := do(t, router, http.MethodGet, "/api/v1/garden", "rose", "")
	require.Len(t, snap.Thoughts, 1)

	store.appendErr = apperr.Wrap(apperr.KindUnavailable, "append", errors.New("offline"))
	w, snap := do(t, router, http.MethodPost, "/api/v1/garden/thoughts", "rose", `{"text":"hope and dreams"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, snap.Thoughts, 2)
	assert.True(t, snap.Stale)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, apperr.KindUnavailable, snap.Notice.Kind)

	_, snap = do(t, router, http.MethodGet, "/api/v1/garden/state", "rose", "")
	assert.False(t, snap.Stale)
	require.Len(t, snap.Thoughts, 1)
	assert.Equal(t, "1", snap.Thoughts[0].ID)
}

func TestGardenRoutes_FetchFailureStatus(t *testing.T) {
	store := &flakyStore{
		MemoryStore: database.NewMemoryStore(),
		fetchErr:    apperr.Wrap(apperr.KindPermissionDenied, "fetch", errors.New("rules")),
	}
	router, _ := newTestRouter(store)

	w, snap := do(t, router, http.MethodGet, "/api/v1/garden", "rose", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, garden.StateError, snap.State)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, apperr.KindPermissionDenied, snap.Notice.Kind)
}

func TestProfileAndHealth(t *testing.T) {
	router, _ := newTestRouter(database.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(middleware.DebugUserHeader, "rose")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"rose","email":"User","app":"Whispers in Bloom","version":"1.0.0"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0","gardens":0}`, w.Body.String())
}
