package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/mailer"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/utils"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

const resetTokenTTL = 10 * time.Minute

type AuthService struct {
	userRepo      *repository.UserRepository
	mail          mailer.Mailer
	jwtSecret     string
	jwtExpiration time.Duration
	baseURL       string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	mail mailer.Mailer,
	jwtSecret string,
	jwtExpiration time.Duration,
	baseURL string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		mail:          mail,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		baseURL:       baseURL,
	}
}

// Signup creates a new account and issues a session token. The role is
// always "user": promotion never happens through an input path.
func (s *AuthService) Signup(name, email, password, passwordConfirm string) (*models.User, string, error) {
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}
	if password != passwordConfirm {
		return nil, "", apperror.New(apperror.KindValidation, "passwords do not match")
	}

	user := &models.User{
		Name:  name,
		Email: email,
		Role:  models.RoleUser,
	}
	if err := user.Validate(); err != nil {
		return nil, "", err
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.KindInternal, "failed to hash password", err)
	}
	user.Password = hashed

	if err := s.userRepo.Create(user); err != nil {
		logger.Log.Warn("Signup failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// Welcome mail failure must not fail the signup
	if err := s.mail.SendWelcome(user, s.baseURL+"/me"); err != nil {
		logger.Log.Warn("Failed to send welcome email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)
	return user, token, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperror.New(apperror.KindValidation, "please provide email and password")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperror.New(apperror.KindUnauthenticated, "incorrect email or password")
	}

	valid, err := utils.VerifyPassword(password, user.Password)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.KindInternal, "failed to verify password", err)
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
		)
		return nil, "", apperror.New(apperror.KindUnauthenticated, "incorrect email or password")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
	)
	return user, token, nil
}

// IssueToken mints a session token bound to the user's identifier.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	token, err := utils.GenerateToken(user.ID, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to generate token", err)
	}
	return token, nil
}

// VerifyToken walks the session state machine: token present → signature
// and expiry verified → user resolved → password-change staleness check.
func (s *AuthService) VerifyToken(tokenString string) (*models.User, error) {
	claims, err := utils.ValidateToken(tokenString, s.jwtSecret)
	if err != nil {
		if err == utils.ErrExpiredToken {
			return nil, apperror.New(apperror.KindTokenExpired, "your token has expired, please log in again")
		}
		return nil, apperror.New(apperror.KindInvalidToken, "invalid token, please log in again")
	}

	user, err := s.userRepo.GetActiveByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.New(apperror.KindUnauthenticated,
			"the user belonging to this token does no longer exist")
	}

	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperror.New(apperror.KindUnauthenticated,
			"user recently changed password, please log in again")
	}

	return user, nil
}

// ForgotPassword starts the reset lifecycle: random token, digest + short
// expiry persisted, plaintext mailed. An email-dispatch failure rolls the
// pending reset fields back and surfaces a retryable error.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.New(apperror.KindNotFound, "no user found with that email address")
	}

	resetToken, err := utils.GenerateResetToken()
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to generate reset token", err)
	}

	hashed := utils.HashResetToken(resetToken)
	expires := time.Now().Add(resetTokenTTL)
	user.PasswordResetToken = &hashed
	user.PasswordResetExpires = &expires
	if err := s.userRepo.Save(user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, resetToken)
	if err := s.mail.SendPasswordReset(user, resetURL); err != nil {
		// Invalidate the pending reset so the token cannot linger
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
		if saveErr := s.userRepo.Save(user); saveErr != nil {
			logger.Log.Error("Failed to clear reset token after mail failure",
				zap.String("user_id", user.ID.String()),
				zap.Error(saveErr),
			)
		}
		return apperror.Wrap(apperror.KindInternal,
			"there was an error sending the email, try again later", err)
	}

	logger.Log.Info("Password reset token sent",
		zap.String("user_id", user.ID.String()),
	)
	return nil
}

// ResetPassword consumes a reset token: digest + expiry check, password
// rotation, token invalidation, fresh login.
func (s *AuthService) ResetPassword(token, password, passwordConfirm string) (*models.User, string, error) {
	user, err := s.userRepo.GetByResetToken(utils.HashResetToken(token))
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperror.New(apperror.KindValidation, "token is invalid or has expired")
	}

	if err := s.rotatePassword(user, password, passwordConfirm); err != nil {
		return nil, "", err
	}

	sessionToken, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("Password reset completed",
		zap.String("user_id", user.ID.String()),
	)
	return user, sessionToken, nil
}

// UpdatePassword rotates the password of a logged-in user after
// re-verifying the current one.
func (s *AuthService) UpdatePassword(userID uuid.UUID, current, password, passwordConfirm string) (*models.User, string, error) {
	user, err := s.userRepo.GetActiveByID(userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", apperror.New(apperror.KindUnauthenticated,
			"the user belonging to this token does no longer exist")
	}

	valid, err := utils.VerifyPassword(current, user.Password)
	if err != nil {
		return nil, "", apperror.Wrap(apperror.KindInternal, "failed to verify password", err)
	}
	if !valid {
		return nil, "", apperror.New(apperror.KindUnauthenticated, "your current password is wrong")
	}

	if err := s.rotatePassword(user, password, passwordConfirm); err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) rotatePassword(user *models.User, password, passwordConfirm string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	if password != passwordConfirm {
		return apperror.New(apperror.KindValidation, "passwords do not match")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to hash password", err)
	}

	now := time.Now()
	user.Password = hashed
	user.PasswordChangedAt = &now
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	return s.userRepo.Save(user)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return apperror.New(apperror.KindValidation, "password must be at least 8 characters")
	}
	if len(password) > 128 {
		return apperror.New(apperror.KindValidation, "password too long")
	}
	return nil
}
