package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
)

type Review struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Review string    `gorm:"type:text;not null" json:"review"`
	Rating float64   `gorm:"not null" json:"rating"`

	// One review per (tour, user) pair
	TourID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_reviews_tour_user" json:"tour"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_tour_user" json:"-"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`

	CreatedAt time.Time `json:"createdAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks required fields and rounds the rating to one decimal,
// mirroring the setter behavior on the schema this model derives from.
func (r *Review) Validate() error {
	if r.Review == "" {
		return apperror.New(apperror.KindValidation, "review can not be empty")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return apperror.New(apperror.KindValidation, "rating must be between 1 and 5")
	}
	r.Rating = math.Round(r.Rating*10) / 10
	if r.TourID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "review must belong to a tour")
	}
	if r.UserID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "review must belong to a user")
	}
	return nil
}
