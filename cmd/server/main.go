// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/restock/backend-go/internal/api"
	"github.com/andresuchdata/restock/backend-go/internal/cache"
	"github.com/andresuchdata/restock/backend-go/internal/config"
	"github.com/andresuchdata/restock/backend-go/internal/replenishment"
	"github.com/andresuchdata/restock/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/restock/backend-go/internal/scheduler"
	"github.com/andresuchdata/restock/backend-go/internal/service"
	"github.com/andresuchdata/restock/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db.DB.DB); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	warehouseCache, err := cache.NewWarehouseStockCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, continuing without warehouse cache")
		warehouseCache = cache.NewNoopWarehouseStockCache()
	}

	runs := postgres.NewIngestRunRepository(db)

	// Initialize services
	engine := replenishment.NewEngine(replenishment.ParamsFromConfig(cfg.Engine))
	replenishmentService := service.NewReplenishmentService(service.Repositories{
		Inventory:  postgres.NewInventoryRepository(db),
		Sales:      postgres.NewSalesRepository(db),
		Warehouses: postgres.NewWarehouseRepository(db),
		Runs:       runs,
	}, warehouseCache, engine, cfg.Engine.BatchConcurrency)

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(logger.Log)
		if err := jobs.AddJob(cfg.Scheduler.CacheInvalidateSpec, scheduler.NewCacheInvalidationJob(replenishmentService)); err != nil {
			logger.Log.Fatal().Err(err).Msg("Invalid cache invalidation schedule")
		}
		staleAge := time.Duration(cfg.Scheduler.StaleRunMinutes) * time.Minute
		if err := jobs.AddJob(cfg.Scheduler.StaleRunSpec, scheduler.NewStaleIngestRunJob(runs, staleAge)); err != nil {
			logger.Log.Fatal().Err(err).Msg("Invalid stale run schedule")
		}
		jobs.Start()
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		Replenishment: replenishmentService,
		Ready:         db.PingContext,
	}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	if jobs != nil {
		jobs.Stop()
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
