package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/payment"
	"github.com/mariofilbert/natours-api/internal/testutil"
)

func TestCheckoutSessionEndpoint(t *testing.T) {
	env := setupAPI(t)
	tour := testutil.CreateTestTour(t, env.db)
	user := testutil.DefaultTestUser(t, env.db)

	w := env.request(t, http.MethodGet, "/api/v1/bookings/checkout-session/"+tour.ID.String(), nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/bookings/checkout-session/"+tour.ID.String(), nil,
		env.tokenFor(t, user))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	session := body["session"].(map[string]interface{})
	assert.NotEmpty(t, session["url"])

	require.Len(t, env.gateway.CheckoutInputs, 1)
	assert.Equal(t, int64(39700), env.gateway.CheckoutInputs[0].AmountCents)
}

func TestWebhookEndpointCreatesBooking(t *testing.T) {
	env := setupAPI(t)
	tour := testutil.CreateTestTour(t, env.db)
	user := testutil.DefaultTestUser(t, env.db)

	env.gateway.Event = &payment.CheckoutEvent{
		EventID:       "evt_1",
		SessionID:     "cs_1",
		TourRef:       tour.ID.String(),
		CustomerEmail: user.Email,
		AmountTotal:   39700,
		Completed:     true,
	}

	w := env.request(t, http.MethodPost, "/webhook-checkout", map[string]interface{}{}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "received")

	var booking models.Booking
	require.NoError(t, env.db.First(&booking).Error)
	assert.Equal(t, tour.ID, booking.TourID)
	assert.Equal(t, user.ID, booking.UserID)
	assert.Equal(t, 397.0, booking.Price)
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	env := setupAPI(t)
	env.gateway.Signature = "good-signature"

	w := env.request(t, http.MethodPost, "/webhook-checkout", map[string]interface{}{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Booking{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestMyBookings(t *testing.T) {
	env := setupAPI(t)
	tour := testutil.CreateTestTour(t, env.db)
	alice := testutil.CreateTestUser(t, env.db, "Alice", "alice@example.com", "pass1234", models.RoleUser)
	bob := testutil.CreateTestUser(t, env.db, "Bob", "bob@example.com", "pass1234", models.RoleUser)

	require.NoError(t, env.db.Create(&models.Booking{
		TourID: tour.ID, UserID: alice.ID, Price: 397, Paid: true,
	}).Error)
	require.NoError(t, env.db.Create(&models.Booking{
		TourID: tour.ID, UserID: bob.ID, Price: 397, Paid: true,
	}).Error)

	w := env.request(t, http.MethodGet, "/api/v1/bookings/my-bookings", nil, env.tokenFor(t, alice))
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["results"])
}

func TestBookingAdminRoutes(t *testing.T) {
	env := setupAPI(t)
	user := testutil.DefaultTestUser(t, env.db)
	admin := testutil.DefaultAdminUser(t, env.db)

	w := env.request(t, http.MethodGet, "/api/v1/bookings", nil, env.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/bookings", nil, env.tokenFor(t, admin))
	assert.Equal(t, http.StatusOK, w.Code)
}
