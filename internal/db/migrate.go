package db

import (
	"fmt"

	"github.com/ghosthub/ghosthub/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Classification{},
		&models.Summary{},
		&models.IssueDraft{},
	}
}

// AutoMigrate creates or updates all GhostHub tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
