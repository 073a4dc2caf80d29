package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/media"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/service"
)

var userQueryColumns = map[string]string{
	"name":  "name",
	"email": "email",
	"role":  "role",
}

// Admin-side partial updates never touch the password or the role.
var userUpdatableColumns = map[string]string{
	"name":  "name",
	"email": "email",
	"photo": "photo",
}

type UserHandler struct {
	*Resource[models.User]
	userService *service.UserService
	storage     media.Storage
}

func NewUserHandler(userRepo *repository.UserRepository, userService *service.UserService, storage media.Storage) *UserHandler {
	resource := NewResource(
		userRepo.Repository,
		"user", "users",
		userQueryColumns,
		userUpdatableColumns,
		WithListScope[models.User](func(c *gin.Context) []repository.Scope {
			return []repository.Scope{repository.ActiveUsers}
		}),
	)
	return &UserHandler{
		Resource:    resource,
		userService: userService,
		storage:     storage,
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}
	renderData(c, http.StatusOK, "user", user)
}

// UpdateMe changes the caller's own profile. Accepts JSON or multipart;
// multipart may carry a photo file that is stored before the update.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}

	input, err := h.profileInput(c)
	if err != nil {
		renderError(c, err)
		return
	}

	updated, err := h.userService.UpdateMe(user.ID, input)
	if err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusOK, "user", updated)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}

	if err := h.userService.DeleteMe(user.ID); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, gin.H{
		"status": "success",
		"data":   nil,
	})
}

// profileInput normalizes the two accepted body shapes into one map.
func (h *UserHandler) profileInput(c *gin.Context) (map[string]interface{}, error) {
	input := make(map[string]interface{})

	if form, err := c.MultipartForm(); err == nil {
		for key, values := range form.Value {
			if len(values) > 0 {
				input[key] = values[0]
			}
		}

		if files := form.File["photo"]; len(files) > 0 {
			if err := ensureImage(files[0]); err != nil {
				return nil, err
			}

			user, _ := middleware.CurrentUser(c)
			name := media.UserPhotoName(user.ID)

			src, err := files[0].Open()
			if err != nil {
				return nil, apperror.Wrap(apperror.KindInternal, "failed to read uploaded photo", err)
			}
			defer src.Close()

			if err := h.storage.Save(name, src); err != nil {
				return nil, apperror.Wrap(apperror.KindInternal, "failed to store uploaded photo", err)
			}
			input["photo"] = name
		}
		return input, nil
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid request body")
	}
	return input, nil
}
