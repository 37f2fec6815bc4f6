// File: internal/platform/database/migrate.go
package database

import (
	"fmt"

	"donation_share_backend/internal/notification"
	"donation_share_backend/internal/product"
	"donation_share_backend/internal/user"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every model the service owns.
// Run at startup; safe to run repeatedly.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&product.Product{},
		&notification.Notification{},
	); err != nil {
		return fmt.Errorf("failed to run schema migration: %w", err)
	}
	return nil
}
