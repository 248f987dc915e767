package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clothingloop/server/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.UserProfile{},
		&models.Chain{},
		&models.Mail{},
		&models.InterestedUser{},
		&models.LoginToken{},
		&models.AuditLog{},
		&models.CacheEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
