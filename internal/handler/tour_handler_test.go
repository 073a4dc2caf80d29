package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/testutil"
)

func TestCreateTourRequiresElevatedRole(t *testing.T) {
	env := setupAPI(t)
	user := testutil.DefaultTestUser(t, env.db)
	lead := testutil.CreateTestUser(t, env.db, "Lead Guide", "lead@example.com", "pass1234", models.RoleLeadGuide)

	w := env.request(t, http.MethodPost, "/api/v1/tours", validTourBody(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/tours", validTourBody(), env.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/tours", validTourBody(), env.tokenFor(t, lead))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	tour := data(t, w)["tour"].(map[string]interface{})
	assert.Equal(t, "the-forest-hiker", tour["slug"])
	assert.EqualValues(t, 4.8, tour["ratingsAverage"])
}

func TestCreateTourValidation(t *testing.T) {
	env := setupAPI(t)
	admin := testutil.DefaultAdminUser(t, env.db)
	token := env.tokenFor(t, admin)

	body := validTourBody()
	body["priceDiscount"] = 500
	w := env.request(t, http.MethodPost, "/api/v1/tours", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "below regular price")

	body = validTourBody()
	body["name"] = "Short"
	w = env.request(t, http.MethodPost, "/api/v1/tours", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = validTourBody()
	body["difficulty"] = "impossible"
	w = env.request(t, http.MethodPost, "/api/v1/tours", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTourRoundTrip(t *testing.T) {
	env := setupAPI(t)
	admin := testutil.DefaultAdminUser(t, env.db)
	token := env.tokenFor(t, admin)
	tour := testutil.CreateTestTour(t, env.db)
	id := tour.ID.String()

	w := env.request(t, http.MethodGet, "/api/v1/tours/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tour.Name)

	w = env.request(t, http.MethodPatch, "/api/v1/tours/"+id, map[string]interface{}{
		"price": 500,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	payload := data(t, w)
	previous := payload["previous"].(map[string]interface{})
	updated := payload["updated"].(map[string]interface{})
	assert.EqualValues(t, 397, previous["price"])
	assert.EqualValues(t, 500, updated["price"])

	w = env.request(t, http.MethodDelete, "/api/v1/tours/"+id, nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/tours/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodDelete, "/api/v1/tours/"+id, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublicTourReadsIgnoreBadToken(t *testing.T) {
	env := setupAPI(t)
	tour := testutil.CreateTestTour(t, env.db)

	w := env.request(t, http.MethodGet, "/api/v1/tours", nil, "garbage-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/tours/"+tour.ID.String(), nil, "garbage-token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetTourMalformedID(t *testing.T) {
	env := setupAPI(t)

	w := env.request(t, http.MethodGet, "/api/v1/tours/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "fail", decode(t, w)["status"])
}

func seedTours(t *testing.T, env *apiEnv) {
	t.Helper()
	mk := func(name string, difficulty models.Difficulty, price, rating float64) {
		testutil.CreateTestTour(t, env.db, func(tour *models.Tour) {
			tour.Name = name
			tour.Difficulty = difficulty
			tour.Price = price
			tour.RatingsAverage = rating
		})
	}
	mk("The Forest Hiker", models.DifficultyEasy, 400, 4.7)
	mk("The Sea Explorer", models.DifficultyEasy, 600, 4.8)
	mk("The Snow Adventurer", models.DifficultyDifficult, 1000, 4.9)
	mk("The Park Camper", models.DifficultyMedium, 300, 4.5)
}

func TestListToursFilteredAndSorted(t *testing.T) {
	env := setupAPI(t)
	seedTours(t, env)

	w := env.request(t, http.MethodGet, "/api/v1/tours?difficulty=easy&sort=-price", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 2, body["results"])
	tours := body["data"].(map[string]interface{})["tours"].([]interface{})
	first := tours[0].(map[string]interface{})
	assert.Equal(t, "The Sea Explorer", first["name"])

	w = env.request(t, http.MethodGet, "/api/v1/tours?price[gte]=500", nil, "")
	assert.EqualValues(t, 2, decode(t, w)["results"])

	w = env.request(t, http.MethodGet, "/api/v1/tours?page=2&limit=3", nil, "")
	assert.EqualValues(t, 1, decode(t, w)["results"])
}

func TestTopFiveCheapAlias(t *testing.T) {
	env := setupAPI(t)
	seedTours(t, env)
	testutil.CreateTestTour(t, env.db, func(tour *models.Tour) {
		tour.Name = "The Star Gazer"
		tour.Price = 1500
		tour.RatingsAverage = 4.9
	})
	testutil.CreateTestTour(t, env.db, func(tour *models.Tour) {
		tour.Name = "The Wine Taster"
		tour.Price = 200
		tour.RatingsAverage = 4.9
	})

	w := env.request(t, http.MethodGet, "/api/v1/tours/top-5-cheap", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 5, body["results"])
	tours := body["data"].(map[string]interface{})["tours"].([]interface{})
	// Best rated first, cheaper first within a rating tie
	first := tours[0].(map[string]interface{})
	assert.Equal(t, "The Wine Taster", first["name"])
}

func TestSecretToursHidden(t *testing.T) {
	env := setupAPI(t)
	testutil.CreateTestTour(t, env.db)
	secret := testutil.CreateTestTour(t, env.db, func(tour *models.Tour) {
		tour.Name = "The Secret Getaway"
		tour.SecretTour = true
	})

	w := env.request(t, http.MethodGet, "/api/v1/tours", nil, "")
	body := decode(t, w)
	assert.EqualValues(t, 1, body["results"])
	assert.NotContains(t, w.Body.String(), "The Secret Getaway")

	w = env.request(t, http.MethodGet, "/api/v1/tours/"+secret.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTourStatsEndpoint(t *testing.T) {
	env := setupAPI(t)
	seedTours(t, env)

	w := env.request(t, http.MethodGet, "/api/v1/tours/tour-stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "avgPrice")
}

func TestMonthlyPlanRequiresGuideRole(t *testing.T) {
	env := setupAPI(t)
	user := testutil.DefaultTestUser(t, env.db)
	guide := testutil.CreateTestUser(t, env.db, "A Guide", "guide@example.com", "pass1234", models.RoleGuide)

	w := env.request(t, http.MethodGet, "/api/v1/tours/monthly-plan/2026", nil, env.tokenFor(t, user))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/tours/monthly-plan/2026", nil, env.tokenFor(t, guide))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/tours/monthly-plan/not-a-year", nil, env.tokenFor(t, guide))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToursWithinValidation(t *testing.T) {
	env := setupAPI(t)
	testutil.CreateTestTour(t, env.db)

	w := env.request(t, http.MethodGet, "/api/v1/tours/tours-within/100/center/34.05,-118.24/unit/km", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["results"])

	w = env.request(t, http.MethodGet, "/api/v1/tours/tours-within/100/center/garbage/unit/km", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "lat,lng")
}

func TestDistancesEndpoint(t *testing.T) {
	env := setupAPI(t)
	testutil.CreateTestTour(t, env.db)

	w := env.request(t, http.MethodGet, "/api/v1/tours/distances/34.05,-118.24/unit/mi", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "distance")
}

func TestHealthAndMetricsExposed(t *testing.T) {
	env := setupAPI(t)

	w := env.request(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	env.request(t, http.MethodGet, "/api/v1/tours", nil, "")
	w = env.request(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "natours_http_requests_total")
}
