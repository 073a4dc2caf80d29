package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
)

type Booking struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TourID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Price  float64   `gorm:"not null" json:"price"`
	Paid   bool      `gorm:"not null;default:true" json:"paid"`

	// Checkout session that produced this booking; unique so replayed
	// webhook events cannot create duplicates. Nil for admin-created rows.
	SessionID *string `gorm:"type:varchar(255);uniqueIndex" json:"-"`

	Tour Tour `gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE" json:"tour"`
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`

	CreatedAt time.Time `json:"createdAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) Validate() error {
	if b.TourID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "booking must belong to a tour")
	}
	if b.UserID == uuid.Nil {
		return apperror.New(apperror.KindValidation, "booking must belong to a user")
	}
	if b.Price <= 0 {
		return apperror.New(apperror.KindValidation, "booking must have a price")
	}
	return nil
}
