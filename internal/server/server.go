// Package server exposes the health probe and Prometheus metrics over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Houeta/garderie-watch/internal/metrics"
)

const readHeaderTimeout = 5 * time.Second

// New returns an http.Server serving Handler on addr. The caller owns its lifecycle.
func New(log *slog.Logger, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           Handler(log),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}
}

// Handler builds the router: GET /healthz and GET /metrics.
func Handler(log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz(log))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

func healthz(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			log.Error("healthz write failed", "error", err)
		}
	}
}
