package database

import (
	"fmt"

	"venue-crm-backend/pkg/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Venue{},
		&models.Proposal{},
		&models.ProposalVenue{},
		&models.Booking{},
		&models.CommissionClaim{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
