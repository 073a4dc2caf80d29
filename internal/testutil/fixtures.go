package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/utils"
)

// CreateTestUser inserts an active user with a hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, name, email, password string, role models.Role) *models.User {
	t.Helper()

	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
		Active:   true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// DefaultTestUser inserts a regular user with known credentials.
func DefaultTestUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Test User", "test@example.com", "pass1234", models.RoleUser)
}

// DefaultAdminUser inserts an admin with known credentials.
func DefaultAdminUser(t *testing.T, db *gorm.DB) *models.User {
	return CreateTestUser(t, db, "Admin User", "admin@example.com", "admin1234", models.RoleAdmin)
}

// TourOverride mutates a valid tour fixture before insertion.
type TourOverride func(*models.Tour)

// CreateTestTour inserts a tour that passes validation; overrides adjust
// individual fields per test.
func CreateTestTour(t *testing.T, db *gorm.DB, overrides ...TourOverride) *models.Tour {
	t.Helper()

	tour := &models.Tour{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   models.DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:   "tour-1-cover.jpg",
		StartLocation: models.Location{
			Lat:         34.111745,
			Lng:         -118.113491,
			Address:     "89 Via Monte Picayo, Pasadena",
			Description: "California, USA",
		},
		StartDates: []models.TourStartDate{
			{Date: time.Date(2026, time.April, 25, 9, 0, 0, 0, time.UTC)},
			{Date: time.Date(2026, time.July, 20, 9, 0, 0, 0, time.UTC)},
		},
	}
	for _, override := range overrides {
		override(tour)
	}

	if err := db.Create(tour).Error; err != nil {
		t.Fatalf("Failed to create test tour: %v", err)
	}
	return tour
}

// CreateTestReview inserts a review linking the given user and tour.
func CreateTestReview(t *testing.T, db *gorm.DB, tourID, userID uuid.UUID, rating float64) *models.Review {
	t.Helper()

	review := &models.Review{
		ID:     uuid.New(),
		Review: "Loved every minute of it",
		Rating: rating,
		TourID: tourID,
		UserID: userID,
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("Failed to create test review: %v", err)
	}
	return review
}
