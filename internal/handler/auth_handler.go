package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/service"
)

type AuthHandler struct {
	authService  *service.AuthService
	cookieMaxAge time.Duration
	isProduction bool
}

func NewAuthHandler(authService *service.AuthService, cookieMaxAge time.Duration, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieMaxAge: cookieMaxAge,
		isProduction: isProduction,
	}
}

type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	user, token, err := h.authService.Signup(req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		renderError(c, err)
		return
	}
	h.sendToken(c, http.StatusCreated, user, token)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		renderError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, user, token)
}

// Logout replaces the session cookie with a short-lived dummy value.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("jwt", "loggedout", int((10 * time.Second).Seconds()), "/", "", h.isProduction, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "token sent to email",
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	user, token, err := h.authService.ResetPassword(c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		renderError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, user, token)
}

func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	user, token, err := h.authService.UpdatePassword(current.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		renderError(c, err)
		return
	}
	h.sendToken(c, http.StatusOK, user, token)
}

// sendToken writes the session cookie and the token-bearing envelope.
func (h *AuthHandler) sendToken(c *gin.Context, status int, user *models.User, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("jwt", token, int(h.cookieMaxAge.Seconds()), "/", "", h.isProduction, true)

	c.JSON(status, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}
