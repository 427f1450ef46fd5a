package httpapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CronSecret string
	// TriggerRateLimit is requests per minute per IP on trigger routes; 0 disables it.
	TriggerRateLimit int
}

func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.TriggerRateLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.TriggerRateLimit, time.Minute))
			}
			r.Use(BearerAuth(cfg.CronSecret))

			r.Get("/cron/sync", h.CronSync)
			r.Post("/cron/sync", h.CronSync)
			r.Post("/subscriptions/{id}/sync", h.SyncSubscription)
			r.Patch("/channels/{id}/favorite", h.SetFavorite)
		})

		r.Get("/subscriptions/{id}/progress", h.Progress)
		r.Get("/subscriptions/{id}/progress/ws", h.ProgressStream)
		r.Get("/subscriptions/{id}/categories", h.ListCategories)
		r.Get("/subscriptions/{id}/items/{domain}", h.ListItems)
		r.Get("/subscriptions/{id}/new/{domain}", h.ListNew)
		r.Get("/runs", h.ListRuns)
	})

	return r
}
