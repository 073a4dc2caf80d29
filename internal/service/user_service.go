package service

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

// updatableProfileFields is the self-service allow-list. Everything
// else, role and password above all, is silently dropped or rejected
// before it reaches persistence.
var updatableProfileFields = map[string]bool{
	"name":  true,
	"email": true,
	"photo": true,
}

type UserService struct {
	userRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// UpdateMe applies profile changes for the logged-in user. Password
// material is rejected outright so a stray client cannot bypass the
// dedicated password flow.
func (s *UserService) UpdateMe(userID uuid.UUID, input map[string]interface{}) (*models.User, error) {
	if _, ok := input["password"]; ok {
		return nil, apperror.New(apperror.KindValidation,
			"this route is not for password updates, please use /updateMyPassword")
	}
	if _, ok := input["passwordConfirm"]; ok {
		return nil, apperror.New(apperror.KindValidation,
			"this route is not for password updates, please use /updateMyPassword")
	}

	fields := make(map[string]interface{})
	for key, value := range input {
		if updatableProfileFields[key] {
			fields[key] = value
		}
	}

	user, err := s.userRepo.GetActiveByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.New(apperror.KindNotFound, "user not found")
	}

	if len(fields) == 0 {
		return user, nil
	}

	// The merge runs through the validating update path, so a malformed
	// email rolls back instead of landing in the row
	_, updated, err := s.userRepo.UpdateByID(userID.String(), fields, repository.ActiveUsers)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("User profile updated",
		zap.String("user_id", userID.String()),
	)
	return updated, nil
}

// DeleteMe deactivates the account. The row survives so reviews and
// bookings keep their owner.
func (s *UserService) DeleteMe(userID uuid.UUID) error {
	if err := s.userRepo.Deactivate(userID); err != nil {
		return err
	}
	logger.Log.Info("User deactivated",
		zap.String("user_id", userID.String()),
	)
	return nil
}
