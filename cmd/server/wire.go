// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"log"

	"donation_share_backend/internal/app"
	"donation_share_backend/internal/config"
	"donation_share_backend/internal/filestorage"
	"donation_share_backend/internal/jobs"
	"donation_share_backend/internal/notification"
	"donation_share_backend/internal/platform/clock"
	"donation_share_backend/internal/platform/database"
	"donation_share_backend/internal/platform/logger"
	"donation_share_backend/internal/product"
	"donation_share_backend/internal/shared"
	"donation_share_backend/internal/user"

	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		clock.NewSystem,
		provideFileStorage,
		wire.Bind(new(product.ImageStore), new(*filestorage.Service)),
		provideCleanup,

		// Users
		user.NewGORMRepository,
		user.NewService,
		user.NewHandler,

		// Products (lifecycle engine)
		product.NewGORMRepository,
		product.NewService,
		product.NewHandler,
		wire.Bind(new(shared.ProductResolver), new(*product.Service)),

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Jobs
		jobs.NewSweeperJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}

func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.Service, error) {
	return filestorage.New(cfg.ImageStoragePath, logger)
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
