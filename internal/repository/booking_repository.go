package repository

import (
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
)

type BookingRepository struct {
	*Repository[models.Booking]
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{Repository: New[models.Booking](db, "booking", "Tour", "User")}
}

// ExistsBySession reports whether a checkout session has already been
// recorded as a booking.
func (r *BookingRepository) ExistsBySession(sessionID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Booking{}).Where("session_id = ?", sessionID).Count(&count).Error
	if err != nil {
		return false, apperror.FromDB(err, "booking")
	}
	return count > 0, nil
}
