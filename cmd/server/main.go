package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portcall-service/internal/app"
	"portcall-service/internal/infrastructure/config"
	"portcall-service/internal/interface/api"
	"portcall-service/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting PortCall Service", "version", cfg.AppVersion, "cacheBackend", cfg.CacheBackend)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire cache backend and pipeline
	application, err := app.New(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("Failed to initialise application", "error", err)
	}

	// Set up request store
	processor, err := application.NewRequestProcessor()
	if err != nil {
		log.Fatal("Failed to set up request store", "error", err)
	}

	// Start cache sweeper in a goroutine
	go application.Cache.StartSweeper(ctx, cfg.CacheSweepInterval)

	handler := api.NewHandler(application.Orchestrator, processor, application.Cache, cfg.AppVersion, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(promhttp.Handler()),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Stop the sweeper

	// Let in-flight checklist requests finish before closing backends
	log.Info("Waiting for in-flight checklist requests")
	processor.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	application.Close(closeCtx)

	log.Info("PortCall Service stopped")
}
