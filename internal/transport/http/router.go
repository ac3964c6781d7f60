// Package httptransport assembles the HTTP surface: middleware stack,
// domain handlers, health, and metrics. Handlers stay thin; business logic
// lives in the internal services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firledger/internal/platform/metrics"
	"firledger/internal/platform/middleware"
)

// Registrar is anything that can mount routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// Options carries the cross-cutting dependencies the router wires in.
type Options struct {
	Logger         *slog.Logger
	TokenValidator middleware.TokenValidator
	RequireToken   bool
	RequestTimeout time.Duration
	Health         func() error
	Metrics        *metrics.Metrics
}

// NewRouter builds the chi router with the shared middleware stack and
// mounts every handler.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(middleware.ContentTypeJSON)
	if opts.TokenValidator != nil {
		r.Use(middleware.BindIdentity(opts.TokenValidator, opts.RequireToken, opts.Logger))
	}

	for _, h := range handlers {
		h.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"message":"unhealthy"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
