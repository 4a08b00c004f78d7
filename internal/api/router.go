package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/carewise/care-coordinator/internal/booking"
)

type RouterConfig struct {
	Coordinator *booking.Coordinator
	PgPool      *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", startSessionHandler(cfg.Coordinator))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/draft", draftHandler(cfg.Coordinator))
			r.Get("/slots", slotsHandler(cfg.Coordinator))
			r.Post("/provider", selectProviderHandler(cfg.Coordinator))
			r.Post("/date", selectDateHandler(cfg.Coordinator))
			r.Post("/batch", applyBatchHandler(cfg.Coordinator))
			r.Post("/assistant", assistantReplyHandler(cfg.Coordinator))
			r.Post("/submit", submitHandler(cfg.Coordinator))
			r.Delete("/", endSessionHandler(cfg.Coordinator))
		})
	})

	return r
}
