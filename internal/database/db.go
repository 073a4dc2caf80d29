package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/models"
)

// Connect opens the postgres database.
func Connect(databaseURL string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
}

// Migrate runs auto-migration for all resources.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.TourStartDate{},
		&models.TourLocation{},
		&models.Review{},
		&models.Booking{},
	)
}
