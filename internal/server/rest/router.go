// Package rest exposes the KodBank auth API over HTTP.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kodbank/kodbank/internal/logging"
	"github.com/kodbank/kodbank/internal/server/metrics"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries everything NewRouter wires together. Metrics and DB
// may be nil.
type RouterConfig struct {
	Service        AuthServiceProvider
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	DB             Pinger
	AllowedOrigins []string
	CookieSecure   bool
}

// NewRouter creates and configures the chi router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := NewAuthHandler(cfg.Service, cfg.Logger, cfg.CookieSecure)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", instrument(cfg.Metrics, "register", h.Register))
		r.Post("/login", instrument(cfg.Metrics, "login", h.Login))
		r.Get("/getBalance", instrument(cfg.Metrics, "get_balance", h.GetBalance))
		r.Post("/logout", instrument(cfg.Metrics, "logout", h.Logout))
	})

	r.Get("/healthz", healthz(cfg.DB))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
