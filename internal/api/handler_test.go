package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/maillog/internal/config"
	"github.com/yanizio/maillog/internal/logquery"
	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/tester"
	"github.com/yanizio/maillog/internal/validation"
)

type fakeQueries struct {
	lastValues url.Values
	err        error
}

func (f *fakeQueries) HandleList(_ context.Context, v url.Values) (*logquery.ListResult, error) {
	f.lastValues = v
	if f.err != nil {
		return nil, f.err
	}
	return &logquery.ListResult{
		Logs:        []logstore.Record{{ID: 1, ToEmail: "a@example.com", Status: "Sent"}},
		Total:       25,
		TotalPages:  3,
		CurrentPage: 3,
		PerPage:     10,
	}, nil
}

func (f *fakeQueries) HandleStats(context.Context) (*logstore.Stats, error) {
	return &logstore.Stats{Total: 3, Today: 1, Week: 2, Month: 3, ByStatus: map[string]int64{"Sent": 3}}, f.err
}

func (f *fakeQueries) HandleGet(_ context.Context, raw string) (*logstore.Record, error) {
	id, err := logquery.ParseID(raw)
	if err != nil {
		return nil, err
	}
	if id != 1 {
		return nil, fmt.Errorf("get: %w", logstore.ErrNotFound)
	}
	return &logstore.Record{ID: 1}, nil
}

func (f *fakeQueries) HandleDeleteByID(_ context.Context, raw string) (*logquery.Result, error) {
	id, err := logquery.ParseID(raw)
	if err != nil {
		return nil, err
	}
	switch id {
	case 1:
		return &logquery.Result{Success: true, Message: "Log deleted successfully"}, nil
	case 500:
		return nil, &logstore.PersistenceError{Op: "delete", Err: errors.New("secret dsn detail")}
	}
	return nil, logstore.ErrNotFound
}

func (f *fakeQueries) HandleDeleteAll(context.Context) (*logquery.Result, error) {
	return &logquery.Result{Success: true, Message: "All logs deleted successfully", Deleted: 9}, nil
}

type fakeTester struct{ lastHTML bool }

func (f *fakeTester) SendPlain(_ context.Context, to, _, _ string) tester.Result {
	f.lastHTML = false
	return f.result(to)
}

func (f *fakeTester) SendHTML(_ context.Context, to, _, _ string) tester.Result {
	f.lastHTML = true
	return f.result(to)
}

func (f *fakeTester) result(to string) tester.Result {
	switch to {
	case "":
		err := validation.Email(to)
		return tester.Result{Message: err.Error(), Err: err}
	case "down@example.com":
		return tester.Result{Message: "Failed to send test email. Please check your email configuration.",
			Err: fmt.Errorf("%w: refused", tester.ErrSendFailed)}
	}
	return tester.Result{Success: true, Message: "Test email sent successfully to " + to}
}

func newRouter(q *fakeQueries, tr *fakeTester) http.Handler {
	h := &Handler{
		Queries:  q,
		Tester:   tr,
		Settings: func() config.Settings { return config.Settings{Enabled: false, AdminCapability: "manage_options"} },
		Version:  "1.2.3",
		Log:      zap.NewNop().Sugar(),
		now:      func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	return h.Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestListLogs(t *testing.T) {
	q := &fakeQueries{}
	w, body := do(t, newRouter(q, &fakeTester{}), http.MethodGet, "/api/v1/logs?search=alice&orderby=subject&page=3", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 25, body["total"])
	assert.EqualValues(t, 3, body["total_pages"])
	assert.EqualValues(t, 3, body["current_page"])
	assert.EqualValues(t, 10, body["per_page"])
	assert.Len(t, body["logs"], 1)
	assert.Equal(t, "alice", q.lastValues.Get("search"))
}

func TestListLogsStoreFaultIs500(t *testing.T) {
	q := &fakeQueries{err: &logstore.PersistenceError{Op: "list", Err: errors.New("boom")}}
	w, body := do(t, newRouter(q, &fakeTester{}), http.MethodGet, "/api/v1/logs", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestStoreFaultLoggedOnHandlerLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := &Handler{
		Queries: &fakeQueries{err: &logstore.PersistenceError{Op: "list", Err: errors.New("boom")}},
		Tester:  &fakeTester{},
		Log:     zap.New(core).Sugar().Named("http"),
	}

	w, _ := do(t, h.Router(), http.MethodGet, "/api/v1/logs", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	failed := logs.FilterMessage("api request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "http", failed[0].LoggerName)
	assert.Equal(t, "/api/v1/logs", failed[0].ContextMap()["path"])
}

func TestStatsAndGet(t *testing.T) {
	h := newRouter(&fakeQueries{}, &fakeTester{})

	w, body := do(t, h, http.MethodGet, "/api/v1/logs/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 1, stats["today"])

	w, body = do(t, h, http.MethodGet, "/api/v1/logs/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["log"].(map[string]any)["id"])

	w, _ = do(t, h, http.MethodGet, "/api/v1/logs/2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteLogStatusMapping(t *testing.T) {
	h := newRouter(&fakeQueries{}, &fakeTester{})

	cases := []struct {
		target string
		code   int
	}{
		{"/api/v1/logs/1", http.StatusOK},
		{"/api/v1/logs/77", http.StatusNotFound},
		{"/api/v1/logs/abc", http.StatusBadRequest},
		{"/api/v1/logs/0", http.StatusBadRequest},
		{"/api/v1/logs/500", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w, _ := do(t, h, http.MethodDelete, tc.target, "")
		assert.Equal(t, tc.code, w.Code, tc.target)
	}

	w, body := do(t, h, http.MethodDelete, "/api/v1/logs", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 9, body["deleted"])
}

func TestTestEmail(t *testing.T) {
	tr := &fakeTester{}
	h := newRouter(&fakeQueries{}, tr)

	w, body := do(t, h, http.MethodPost, "/api/v1/test-email", `{"to":"admin@example.com","format":"html"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.True(t, tr.lastHTML)

	w, body = do(t, h, http.MethodPost, "/api/v1/test-email", `{"to":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, validation.ReasonAddressRequired, body["message"])
	assert.False(t, tr.lastHTML)

	w, _ = do(t, h, http.MethodPost, "/api/v1/test-email", `{"to":"down@example.com"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w, _ = do(t, h, http.MethodPost, "/api/v1/test-email", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndSettings(t *testing.T) {
	h := newRouter(&fakeQueries{}, &fakeTester{})

	w, body := do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "2026-01-02T03:04:05Z", body["timestamp"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w, body = do(t, h, http.MethodGet, "/api/v1/settings", "")
	assert.Equal(t, http.StatusOK, w.Code)
	settings := body["settings"].(map[string]any)
	assert.Equal(t, false, settings["enabled"])
	assert.Equal(t, "manage_options", settings["admin_capability"])
}

func TestUnknownRoute(t *testing.T) {
	w, body := do(t, newRouter(&fakeQueries{}, &fakeTester{}), http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}
