package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/maillog/internal/requestinfo"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestForceHTTPS(t *testing.T) {
	h := ForceHTTPS(true)(ok)

	r := httptest.NewRequest(http.MethodGet, "http://mail.example.com/api/v1/logs?page=2", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "https://mail.example.com/api/v1/logs?page=2", w.Header().Get("Location"))

	r = httptest.NewRequest(http.MethodGet, "http://mail.example.com/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTeapot, w.Code)

	r = httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = httptest.NewRecorder()
	ForceHTTPS(false)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://mail.example.com/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	Security(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestAccessLogUsesRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(requestinfo.Middleware, AccessLog(zap.New(core).Sugar()))
	r.Get("/logs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/logs/42", nil)
	req.RemoteAddr = "192.0.2.1:999"
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/logs/{id}", fields["route"])
		assert.EqualValues(t, http.StatusNotFound, fields["status"])
		assert.Equal(t, "192.0.2.1", fields["ip"])
	}
}

func TestStripPort(t *testing.T) {
	assert.Equal(t, "example.com", stripPort("example.com:8443"))
	assert.Equal(t, "example.com", stripPort("example.com"))
	assert.Equal(t, "[::1]", stripPort("[::1]"))
}
