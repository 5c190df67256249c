package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Investment-Backtest-Backend/internal/api/middleware"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/config"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System   *service.SystemService
	Backtest *service.BacktestService
	Cache    *service.CacheService
}

// NewRouter creates and configures the HTTP router
func NewRouter(services Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log.With().Str("component", "http").Logger()))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(services.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/backtest", func(r chi.Router) {
			backtestHandler := handlers.NewBacktestHandler(services.Backtest)
			r.Post("/", backtestHandler.RunBacktest)

			r.Route("/session/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", backtestHandler.SessionBacktest)
				r.Post("/", backtestHandler.RunSessionBacktest)
			})

			r.With(custommiddleware.ValidateUUIDMiddleware).Get("/{uuid}", backtestHandler.GetBacktest)
		})

		r.Route("/cache", func(r chi.Router) {
			cacheHandler := handlers.NewCacheHandler(services.Cache)
			r.Use(custommiddleware.APIKey(cfg.Auth.APIKey))
			r.Delete("/{symbol}", cacheHandler.InvalidateSymbol)
		})
	})

	return r
}
