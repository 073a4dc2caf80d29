package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/metrics"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/query"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/service"
)

var bookingQueryColumns = map[string]string{
	"price":     "price",
	"paid":      "paid",
	"createdAt": "created_at",
}

var bookingUpdatableColumns = map[string]string{
	"price": "price",
	"paid":  "paid",
}

type BookingHandler struct {
	*Resource[models.Booking]
	bookingRepo    *repository.BookingRepository
	bookingService *service.BookingService
}

func NewBookingHandler(bookingRepo *repository.BookingRepository, bookingService *service.BookingService) *BookingHandler {
	resource := NewResource(
		bookingRepo.Repository,
		"booking", "bookings",
		bookingQueryColumns,
		bookingUpdatableColumns,
	)
	return &BookingHandler{
		Resource:       resource,
		bookingRepo:    bookingRepo,
		bookingService: bookingService,
	}
}

// GetCheckoutSession opens a payment session for the tour in the path,
// on behalf of the logged-in user.
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}

	session, err := h.bookingService.CreateCheckoutSession(c.Param("tourId"), user)
	if err != nil {
		renderError(c, err)
		return
	}

	metrics.CheckoutSessionsTotal.Inc()
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"session": session,
	})
}

// GetMyBookings lists the caller's own bookings.
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		renderError(c, apperror.New(apperror.KindUnauthenticated,
			"you are not logged in, please log in to get access"))
		return
	}

	features := query.NewFeatures(c.Request.URL.Query(), bookingQueryColumns)
	bookings, err := h.bookingRepo.List(features, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", user.ID)
	})
	if err != nil {
		renderError(c, err)
		return
	}
	renderList(c, "bookings", bookings, len(bookings))
}
