package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/metrics"
	"github.com/mariofilbert/natours-api/internal/service"
)

type WebhookHandler struct {
	bookingService *service.BookingService
}

func NewWebhookHandler(bookingService *service.BookingService) *WebhookHandler {
	return &WebhookHandler{bookingService: bookingService}
}

// HandleCheckout receives payment-processor webhooks. The raw body is
// required for signature verification, so this route must not sit
// behind any body-parsing middleware.
func (h *WebhookHandler) HandleCheckout(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		renderError(c, apperror.Wrap(apperror.KindInternal, "failed to read webhook body", err))
		return
	}

	if err := h.bookingService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		if apperror.Is(err, apperror.KindInvalidSignature) {
			metrics.WebhookSignatureFailures.Inc()
		}
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
