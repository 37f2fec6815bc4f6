// File: cmd/server/main.go
package main

import (
	"context"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"donation_share_backend/internal/config"
	"donation_share_backend/internal/filestorage"
	"donation_share_backend/internal/jobs"
	"donation_share_backend/internal/notification"
	"donation_share_backend/internal/platform/clock"
	"donation_share_backend/internal/platform/database"
	"donation_share_backend/internal/platform/logger"
	"donation_share_backend/internal/product"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "sweep" {
		runSweepOnce()
		return
	}

	startServer()
}

// runSweepOnce performs a single short + long sweep pass and exits. Meant for
// operators and external schedulers that own the cadence themselves.
func runSweepOnce() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sweep: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sweep: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for sweep", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	images, err := filestorage.New(cfg.ImageStoragePath, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize file storage for sweep", zap.Error(err))
	}

	productRepo := product.NewGORMRepository(db)
	notifRepo := notification.NewGORMRepository(db)
	productService := product.NewService(productRepo, notifRepo, images, clock.NewSystem(), cfg, appLogger)
	sweeper := jobs.NewSweeperJob(productService, appLogger, cfg)

	ctx := context.Background()
	sweeper.RunShortSweep(ctx)
	sweeper.RunLongSweep(ctx)
	appLogger.Info("Sweep pass completed.")
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
