package main

import (
	"errors"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/config"
	"github.com/mariofilbert/natours-api/internal/database"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	adminName := os.Getenv("ADMIN_NAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminName == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	var admin models.User
	result := db.Where("email = ?", adminEmail).First(&admin)
	if result.Error == nil {
		log.Println("Admin user already exists:", admin.Email)
		return
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to look up admin: ", result.Error)
	}

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.Fatal("Failed to hash password: ", err)
	}

	admin = models.User{
		ID:       uuid.New(),
		Name:     adminName,
		Email:    adminEmail,
		Password: passwordHash,
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin: ", err)
	}

	log.Println("Admin user created:", admin.Email)
}
