package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendlog/internal/adapters"
	"spendlog/internal/cache"
	"spendlog/internal/core"
	"spendlog/internal/kv/memory"
	"spendlog/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	ctx := context.Background()
	store := adapters.NewObservedStore(memory.New(), nil)
	accessor := services.NewAccessor(store)
	journal := services.NewJournalService(accessor)

	snapshot := services.NewSnapshot(accessor)
	snapshot.Refresh(ctx)
	t.Cleanup(snapshot.Watch(store))

	views := cache.NewLRUCache[services.DashboardView](16, time.Minute)
	dashboard := services.NewDashboardService(ctx, snapshot, views)

	srv := NewServer(journal, dashboard, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rr)["status"])

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	failing := newTestServer(t, Options{Ready: func(context.Context) error { return errors.New("unreachable") }})
	rr = do(t, failing, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "not_ready", decode[map[string]any](t, rr)["status"])
}

func TestSecurityAndTraceHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestFormAndCategories(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/form", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, core.Form{Category: "Food"}, decode[core.Form](t, rr))

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"name":"  Pets "}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[createCategoryResponse](t, rr)
	assert.True(t, created.Added)
	assert.Equal(t, "Pets", created.Categories[len(created.Categories)-1])

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"name":"Pets"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[createCategoryResponse](t, rr).Added)

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"name":"name"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/categories", "")
	assert.Len(t, decode[[]string](t, rr), len(core.DefaultCategories())+1)
}

func TestRecordLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/records", `{"date":"2025-01-01","category":"Food","amount":10,"note":"lunch"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	first := decode[createRecordResponse](t, rr)
	assert.NotEmpty(t, first.Record.ID)
	assert.Equal(t, 10.0, first.Record.Amount)
	assert.Equal(t, core.Form{Category: "Food"}, first.Form)

	rr = do(t, srv, http.MethodPost, "/api/records", `{"date":"2025-01-05","category":"Transport","amount":"20,5"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/records",
		strings.NewReader("date=2025-02-01&category=Food&amount=4.5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/records", "")
	assert.Len(t, decode[[]core.Record](t, rr), 3)

	rr = do(t, srv, http.MethodGet, "/api/records?category=Food", "")
	food := decode[[]core.Record](t, rr)
	require.Len(t, food, 2)
	assert.Equal(t, "2025-02-01", food[1].Date)

	rr = do(t, srv, http.MethodPost, "/api/records/delete-at", `{"position":1,"category":"Food"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "2025-02-01", decode[deleteRecordResponse](t, rr).Deleted.Date)

	rr = do(t, srv, http.MethodDelete, "/api/records/"+first.Record.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, first.Record.ID, decode[deleteRecordResponse](t, rr).Deleted.ID)

	rr = do(t, srv, http.MethodDelete, "/api/records/"+first.Record.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/records", "")
	remaining := decode[[]core.Record](t, rr)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Transport", remaining[0].Category)

	rr = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Contains(t, rr.Body.String(), "records_created_total 3")
	assert.Contains(t, rr.Body.String(), "records_deleted_total 2")
}

func TestCreateRecordRejections(t *testing.T) {
	srv := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing date", `{"category":"Food","amount":1}`, http.StatusUnprocessableEntity},
		{"bad date", `{"date":"01/02/2025","category":"Food","amount":1}`, http.StatusUnprocessableEntity},
		{"blank category", `{"date":"2025-01-01","category":" ","amount":1}`, http.StatusUnprocessableEntity},
		{"reserved category", `{"date":"2025-01-01","category":"name","amount":1}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"date":"2025-01-01","category":"Food","amount":0}`, http.StatusUnprocessableEntity},
		{"text amount", `{"date":"2025-01-01","category":"Food","amount":"abc"}`, http.StatusUnprocessableEntity},
		{"malformed json", `{"date":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/records", tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rr).Error)
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/records", "")
	assert.Empty(t, decode[[]core.Record](t, rr))

	rr = do(t, srv, http.MethodPost, "/api/records/delete-at", `{"position":"first"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, srv, http.MethodPost, "/api/records/delete-at", `{"position":0}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, body := range []string{
		`{"date":"2025-01-01","category":"Food","amount":10}`,
		`{"date":"2025-01-02","category":"Food","amount":5}`,
		`{"date":"2025-02-01","category":"Transport","amount":20}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/records", body).Code)
	}

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[map[string]any](t, rr)
	assert.Equal(t, "monthly", view["period"])
	assert.Equal(t, 35.0, view["total_all"])
	assert.Len(t, view["line"], 2)

	rr = do(t, srv, http.MethodGet, "/api/dashboard?period=daily&month=2025-01", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view = decode[map[string]any](t, rr)
	assert.Equal(t, 15.0, view["total_selected"])
	assert.Equal(t, 35.0, view["total_all"])
	line := view["line"].([]any)
	require.Len(t, line, 2)
	assert.Equal(t, "2025-01-01", line[0].(map[string]any)["name"])

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/dashboard?period=yearly", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/dashboard?month=2025-13", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPost, "/api/dashboard/activate", "").Code)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	srv := newTestServer(t, Options{RateLimit: 2})

	for range 2 {
		rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Pets"}`)
		require.Less(t, rr.Code, 300, rr.Body.String())
	}
	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name":"Pets"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded, try again later", decode[errorResponse](t, rr).Error)

	for range 5 {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/categories", "").Code)
	}
}
