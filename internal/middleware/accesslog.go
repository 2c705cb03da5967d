package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/metrics"
	"github.com/yanizio/maillog/internal/requestinfo"
)

// AccessLog writes one structured line per request and records latency by
// chi route pattern.  Place it after requestinfo.Middleware so client
// details are available.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.S()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			took := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(route, strconv.Itoa(status)).
				Observe(took.Seconds())

			fields := []any{
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"took", took,
				"request_id", chimw.GetReqID(r.Context()),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.IP,
					"browser", info.Browser,
					"bot", info.IsBot,
				)
				if info.Country != "" {
					fields = append(fields, "country", info.Country)
				}
			}
			log.Infow("http request", fields...)
		})
	}
}
