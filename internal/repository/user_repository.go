package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
)

// ActiveUsers excludes soft-deleted accounts from default lookups.
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

type UserRepository struct {
	*Repository[models.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{Repository: New[models.User](db, "user")}
}

// GetByEmail returns the active user with the given email, or nil when
// no such user exists.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Scopes(ActiveUsers).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

// GetActiveByID resolves a token subject. Inactive users count as gone.
func (r *UserRepository) GetActiveByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.Scopes(ActiveUsers).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

// GetByResetToken matches a stored reset-token digest with an unexpired
// expiry, or returns nil.
func (r *UserRepository) GetByResetToken(hashedToken string) (*models.User, error) {
	var user models.User
	err := r.db.
		Where("password_reset_token = ?", hashedToken).
		Where("password_reset_expires > ?", time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

// Save persists the full user row (password rotation, reset-token
// bookkeeping).
func (r *UserRepository) Save(user *models.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return apperror.FromDB(err, "user")
	}
	return nil
}

// UpdateFields applies a whitelisted partial update to a user row.
func (r *UserRepository) UpdateFields(id uuid.UUID, fields map[string]any) error {
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return apperror.FromDB(err, "user")
	}
	return nil
}

// Deactivate soft-deletes a user by clearing the active flag.
func (r *UserRepository) Deactivate(id uuid.UUID) error {
	return r.UpdateFields(id, map[string]any{"active": false})
}
