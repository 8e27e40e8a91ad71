package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/motomarket/motorag/internal/api/handlers"
	"github.com/motomarket/motorag/internal/api/middleware"
)

type RouterConfig struct {
	AdminToken    string
	ChatHandler   *handlers.ChatHandler
	AdminHandler  *handlers.AdminHandler
	HealthHandler *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 256 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)

	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/chat", cfg.ChatHandler.Chat)
		r.Get("/stats", cfg.AdminHandler.Stats)
		r.Get("/tools", cfg.AdminHandler.Tools)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.AdminToken))
			r.Post("/reindex", cfg.AdminHandler.Reindex)
		})
	})

	return r
}
