package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string    `gorm:"type:varchar(100);not null" json:"name"`
	Email    string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Photo    string    `gorm:"type:varchar(255);not null;default:'default.jpg'" json:"photo"`
	Role     Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Password string    `gorm:"type:varchar(255);not null" json:"-"` // argon2id hash, never serialized

	PasswordChangedAt    *time.Time `json:"-"`
	PasswordResetToken   *string    `gorm:"type:varchar(64);index" json:"-"` // sha256 digest of the reset token
	PasswordResetExpires *time.Time `json:"-"`

	// Soft delete: inactive users are excluded from default lookups
	Active bool `gorm:"not null;default:true" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Validate checks the fields a client may supply. The password hash is
// produced by the auth service, never by input validation.
func (u *User) Validate() error {
	if len(u.Name) == 0 {
		return apperror.New(apperror.KindValidation, "a user must have a name")
	}
	if !emailRegex.MatchString(u.Email) {
		return apperror.New(apperror.KindValidation, "please provide a valid email")
	}
	if len(u.Email) > 100 {
		return apperror.New(apperror.KindValidation, "email too long")
	}
	if u.Role != "" && !u.Role.Valid() {
		return apperror.Newf(apperror.KindValidation, "role is either: %s, %s, %s, %s",
			RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin)
	}
	return nil
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issuance time. Comparison is at second precision: a token
// issued in the same second as the change is still accepted.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}
