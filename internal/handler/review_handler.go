package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/service"
)

var reviewQueryColumns = map[string]string{
	"rating":    "rating",
	"createdAt": "created_at",
}

var reviewUpdatableColumns = map[string]string{
	"review": "review",
	"rating": "rating",
}

type ReviewHandler struct {
	*Resource[models.Review]
	reviewRepo    *repository.ReviewRepository
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewRepo *repository.ReviewRepository, reviewService *service.ReviewService) *ReviewHandler {
	resource := NewResource(
		reviewRepo.Repository,
		"review", "reviews",
		reviewQueryColumns,
		reviewUpdatableColumns,
		WithListScope[models.Review](nestedTourScope),
	)
	return &ReviewHandler{
		Resource:      resource,
		reviewRepo:    reviewRepo,
		reviewService: reviewService,
	}
}

// nestedTourScope narrows reads to one tour when the review routes are
// mounted under /tours/:tourId.
func nestedTourScope(c *gin.Context) []repository.Scope {
	tourID := c.Param("tourId")
	if tourID == "" {
		return nil
	}
	return []repository.Scope{func(db *gorm.DB) *gorm.DB {
		return db.Where("tour_id = ?", tourID)
	}}
}

// CreateOne fills the tour from the nested route and the author from
// the session, then runs the create-plus-recompute flow.
func (h *ReviewHandler) CreateOne(c *gin.Context) {
	var review models.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	if tourParam := c.Param("tourId"); tourParam != "" {
		tourID, err := h.reviewRepo.ParseID(tourParam)
		if err != nil {
			renderError(c, err)
			return
		}
		review.TourID = tourID
	}

	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}
	review.UserID = user.ID

	if err := h.reviewService.Create(&review); err != nil {
		renderError(c, err)
		return
	}
	renderData(c, http.StatusCreated, "review", &review)
}

// UpdateOne routes through the service so the rating aggregate follows.
func (h *ReviewHandler) UpdateOne(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		renderError(c, apperror.New(apperror.KindValidation, "invalid request body"))
		return
	}

	fields := make(map[string]interface{})
	for key, value := range body {
		if column, ok := reviewUpdatableColumns[key]; ok {
			fields[column] = value
		}
	}

	previous, updated, err := h.reviewService.Update(c.Param("id"), fields)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"previous": previous,
			"updated":  updated,
		},
	})
}

func (h *ReviewHandler) DeleteOne(c *gin.Context) {
	if err := h.reviewService.Delete(c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, gin.H{
		"status": "success",
		"data":   nil,
	})
}
