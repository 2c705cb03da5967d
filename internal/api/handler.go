// internal/api/handler.go
//
// JSON API over the log store and the test-email sender.
//
// Context
// -------
// The host is expected to authenticate and authorize callers before a
// request reaches this router (the admin capability is reported by
// GET /settings, not enforced here).  Every response is JSON with a
// `success` flag, except /health, which mirrors a conventional health
// probe.
//
// Routes
// ------
//
//	GET    /api/v1/health
//	GET    /api/v1/settings
//	GET    /api/v1/logs            ?search&orderby&order&page&per_page
//	GET    /api/v1/logs/stats
//	GET    /api/v1/logs/{id}
//	DELETE /api/v1/logs/{id}
//	DELETE /api/v1/logs
//	POST   /api/v1/test-email      {to, subject, message, format}
//	GET    /metrics
//
// Status mapping
// --------------
// Validation errors → 400, missing rows → 404, mail transport failures →
// 502, everything else → 500.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/config"
	"github.com/yanizio/maillog/internal/logquery"
	"github.com/yanizio/maillog/internal/logstore"
	"github.com/yanizio/maillog/internal/middleware"
	"github.com/yanizio/maillog/internal/requestinfo"
	"github.com/yanizio/maillog/internal/tester"
	"github.com/yanizio/maillog/internal/validation"
)

// Prefix is the mount point of the versioned API.
const Prefix = "/api/v1"

// maxBody caps POST payloads.
const maxBody = 1 << 20

// Queries is the log query surface.  *logquery.Service satisfies it.
type Queries interface {
	HandleList(ctx context.Context, v url.Values) (*logquery.ListResult, error)
	HandleStats(ctx context.Context) (*logstore.Stats, error)
	HandleGet(ctx context.Context, rawID string) (*logstore.Record, error)
	HandleDeleteByID(ctx context.Context, rawID string) (*logquery.Result, error)
	HandleDeleteAll(ctx context.Context) (*logquery.Result, error)
}

// Tester sends test emails.  *tester.Sender satisfies it.
type Tester interface {
	SendPlain(ctx context.Context, to, subject, body string) tester.Result
	SendHTML(ctx context.Context, to, subject, body string) tester.Result
}

// Handler bundles the collaborators behind the routes.
type Handler struct {
	Queries    Queries
	Tester     Tester
	Settings   func() config.Settings
	Version    string
	ForceHTTPS bool
	Log        *zap.SugaredLogger

	now func() time.Time
}

// Router returns the full middleware chain and route table.
func (h *Handler) Router() http.Handler {
	if h.now == nil {
		h.now = time.Now
	}
	if h.Log == nil {
		h.Log = zap.S()
	}

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.Recoverer,
		requestinfo.Middleware,
		middleware.AccessLog(h.Log),
		middleware.Security,
		middleware.ForceHTTPS(h.ForceHTTPS),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route(Prefix, func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/settings", h.settings)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", h.listLogs)
			r.Delete("/", h.deleteAllLogs)
			r.Get("/stats", h.logStats)
			r.Get("/{id}", h.getLog)
			r.Delete("/{id}", h.deleteLog)
		})

		r.Post("/test-email", h.testEmail)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		h.respondError(w, http.StatusNotFound, "No route found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

/*──────────────────────────────── meta ────────────────────────────────────*/

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   h.Version,
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"endpoints": map[string]string{
			"health":     Prefix + "/health",
			"settings":   Prefix + "/settings",
			"logs":       Prefix + "/logs",
			"stats":      Prefix + "/logs/stats",
			"test_email": Prefix + "/test-email",
		},
	})
}

func (h *Handler) settings(w http.ResponseWriter, _ *http.Request) {
	s := config.Settings{Enabled: true, AdminCapability: config.DefaultAdminCapability}
	if h.Settings != nil {
		s = h.Settings()
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"success": true, "settings": s})
}

/*──────────────────────────────── logs ────────────────────────────────────*/

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	res, err := h.Queries.HandleList(r.Context(), r.URL.Query())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*logquery.ListResult
	}{true, res})
}

func (h *Handler) logStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Queries.HandleStats(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"success": true, "stats": st})
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Queries.HandleGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"success": true, "log": rec})
}

func (h *Handler) deleteLog(w http.ResponseWriter, r *http.Request) {
	res, err := h.Queries.HandleDeleteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteAllLogs(w http.ResponseWriter, r *http.Request) {
	res, err := h.Queries.HandleDeleteAll(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, res)
}

/*────────────────────────────── test email ────────────────────────────────*/

// testEmailRequest is the POST body.  Format "html" selects SendHTML;
// anything else sends plain text.
type testEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Format  string `json:"format"`
}

func (h *Handler) testEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	send := h.Tester.SendPlain
	if strings.EqualFold(strings.TrimSpace(req.Format), "html") {
		send = h.Tester.SendHTML
	}
	res := send(r.Context(), req.To, req.Subject, req.Message)

	code := http.StatusOK
	switch {
	case res.Success:
	case validation.IsValidation(res.Err):
		code = http.StatusBadRequest
	default:
		code = http.StatusBadGateway
	}
	h.respondJSON(w, code, res)
}
