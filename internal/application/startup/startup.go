// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/internal/application/container"
	"github.com/lozalien/FB-Counter/internal/infrastructure/observability/logging"
	"github.com/lozalien/FB-Counter/internal/infrastructure/persistence/database"
	"github.com/lozalien/FB-Counter/internal/presentation/http/server"
	"github.com/lozalien/FB-Counter/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Load configuration
	log.Println("Initializing...")
	config.Initialize()

	// Step 2: Create the channeled logger
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: config.LogToConsole,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSONFormat,
		DefaultLevel:    logging.ParseLevel(config.LogLevel),
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Startup().Info("Configuration loaded", "dbPath", config.DBPath, "scanInterval", config.ScanInterval)

	// Step 3: Open database handles
	logger.Startup().Info("Opening database...")
	handles, err := database.Open(logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Step 4: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(logger, handles)

	// Step 5: Ensure schema
	if err := appContainer.ObservationRepo.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	logger.Startup().Info("Database schema verified")

	// Step 6: Warm the activity cache
	warmStart := time.Now()
	observations := appContainer.ActivityStore.Get()
	logger.Startup().Info("Activity cache warmed", "observations", len(observations), "duration", time.Since(warmStart))

	// Step 7: Start background workers
	go appContainer.Collector.Run(ctx)
	go appContainer.Broadcaster.Run()
	logger.Startup().Info("Background workers started")

	// Step 8: Start HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Stop accepting requests first so no snapshots arrive while the
	// collector drains.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Cancel background tasks; the collector drains its queue and the
	// tracker logs open sessions that will not be persisted.
	cancelBackgroundTasks()
	select {
	case <-appContainer.Collector.Done():
	case <-time.After(10 * time.Second):
		logger.Shutdown().Warn("Collector did not stop in time")
	}

	logger.Shutdown().Info("Closing database...")
	if err := handles.Close(); err != nil {
		logger.Shutdown().Error("Error closing database", "error", err.Error())
	} else {
		logger.Shutdown().Info("Database closed successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
