package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"crspindex/internal/config"
	apierrors "crspindex/internal/errors"
	"crspindex/internal/infrastructure"
	"crspindex/internal/middleware"
	"crspindex/internal/services"
)

// NewRouter assembles the API router with the full middleware chain.
func NewRouter(service *services.IndexService, logger *slog.Logger, metrics *infrastructure.Metrics, cfg config.ServerConfig, version string) chi.Router {
	errorHandler := apierrors.NewErrorHandler(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(instrument(metrics))

	r.Mount("/healthz", NewHealthHandler(version, func() bool {
		_, err := service.Result()
		return err == nil
	}).Routes())
	r.Handle("/metrics", metrics.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Mount("/index", NewIndexHandler(service, logger, errorHandler).Routes())
	})
	return r
}

// instrument records request counts and latency per chi route pattern.
func instrument(metrics *infrastructure.Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		})
	}
}
