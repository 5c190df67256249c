package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/config"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/database"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/logging"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/repository"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/scheduler"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/service"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/version"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/yahoo"
)

// pruneTimeout bounds a single cache prune.
const pruneTimeout = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logging.SetGlobalLogger(logger)

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
	}
	defer db.Close()

	logger.Info().Str("path", cfg.Database.Path).Str("version", version.Version).Msg("Connected to database")

	// Create repositories
	cacheRepo := repository.NewSeriesCacheRepository(db)
	runRepo := repository.NewBacktestRunRepository(db)

	// Create services
	yahooClient := yahoo.NewFinanceClient(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout)
	marketData := service.NewMarketDataService(
		yahooClient,
		cacheRepo,
		cfg.Cache.TTL,
		logger,
	)
	backtestService := service.NewBacktestService(
		marketData,
		runRepo,
		service.NewRunTracker(),
		logger,
	)
	cacheService := service.NewCacheService(cacheRepo, logger)
	systemService := service.NewSystemService(db)

	// Background jobs
	sched := scheduler.New(logger)
	if err := sched.AddJob(cfg.Cache.PruneSchedule, scheduler.NewCachePruneJob(cacheService, pruneTimeout, logger)); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cache.PruneSchedule).Msg("Invalid cache prune schedule")
	}
	sched.Start()
	defer sched.Stop()

	// Create router
	router := api.NewRouter(api.Services{
		System:   systemService,
		Backtest: backtestService,
		Cache:    cacheService,
	}, cfg, logger)

	// Create HTTP server. A run fetches two series before replaying, so the
	// write timeout leaves room for a slow provider.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Yahoo.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
