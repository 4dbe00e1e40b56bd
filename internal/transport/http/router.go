// Package httptransport assembles the HTTP router: platform middleware, the
// authenticated API surface, and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minty/internal/platform/metrics"
	"minty/internal/platform/middleware"
)

// Registrar mounts a feature's routes on a router. Feature handlers satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports backend reachability for /healthz. Optional.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs from main.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  middleware.JWTValidator
	Handlers   []Registrar
	Health     HealthChecker
	APITimeout time.Duration
}

// NewRouter builds the full router. Every /me route sits behind JWT
// authentication and client metadata extraction; /healthz and /metrics are
// unauthenticated.
func NewRouter(deps Deps) http.Handler {
	timeout := deps.APITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(timeout))
		api.Use(middleware.ClientMetadata)
		api.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		for _, handler := range deps.Handlers {
			handler.Register(api)
		}
	})

	return r
}

func handleHealth(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Health(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
