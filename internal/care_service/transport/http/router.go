package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caredesk/golang_services/internal/care_service/middleware"
)

// RouterConfig carries the secrets the auth middlewares verify against.
type RouterConfig struct {
	TriggerSecret string
	JWTSecret     string
}

// NewRouter wires the care API routes: trigger endpoints behind the
// shared secret, the draft endpoint behind user session auth.
func NewRouter(handler *CareHandler, cfg RouterConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/care", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.TriggerAuthMiddleware(cfg.TriggerSecret, logger))
			r.Post("/dispatch", handler.Dispatch)
			r.Post("/scan", handler.Scan)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuthMiddleware(cfg.JWTSecret, logger))
			r.Post("/draft", handler.Draft)
		})
	})

	return r
}
