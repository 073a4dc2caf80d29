package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/handler"
	"github.com/mariofilbert/natours-api/internal/media"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/router"
	"github.com/mariofilbert/natours-api/internal/service"
	"github.com/mariofilbert/natours-api/internal/testutil"
	"github.com/mariofilbert/natours-api/internal/wal"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init(true)
}

// apiEnv is a fully wired API over in-memory infrastructure.
type apiEnv struct {
	engine      *gin.Engine
	db          *gorm.DB
	mail        *testutil.FakeMailer
	gateway     *testutil.FakeGateway
	authService *service.AuthService
}

func setupAPI(t *testing.T) *apiEnv {
	t.Helper()

	tdb := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { tdb.Teardown(t) })

	journal, err := wal.NewJournal(filepath.Join(t.TempDir(), "events.log"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	userRepo := repository.NewUserRepository(tdb.DB)
	tourRepo := repository.NewTourRepository(tdb.DB)
	reviewRepo := repository.NewReviewRepository(tdb.DB)
	bookingRepo := repository.NewBookingRepository(tdb.DB)

	mail := &testutil.FakeMailer{}
	gateway := &testutil.FakeGateway{}
	storage := media.NewDiskStorage(t.TempDir())

	authService := service.NewAuthService(userRepo, mail, "test-secret", time.Hour, "http://localhost:3000")
	userService := service.NewUserService(userRepo)
	tourService := service.NewTourService(tourRepo)
	reviewService := service.NewReviewService(reviewRepo)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, userRepo, gateway, journal, "http://localhost:3000")

	engine := router.New(router.Deps{
		AuthService: authService,
		Auth:        handler.NewAuthHandler(authService, 24*time.Hour, false),
		Users:       handler.NewUserHandler(userRepo, userService, storage),
		Tours:       handler.NewTourHandler(tourRepo, tourService, storage),
		Reviews:     handler.NewReviewHandler(reviewRepo, reviewService),
		Bookings:    handler.NewBookingHandler(bookingRepo, bookingService),
		Webhooks:    handler.NewWebhookHandler(bookingService),
	})

	return &apiEnv{
		engine:      engine,
		db:          tdb.DB,
		mail:        mail,
		gateway:     gateway,
		authService: authService,
	}
}

// request performs a JSON request, optionally authenticated.
func (e *apiEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.authService.IssueToken(user)
	require.NoError(t, err)
	return token
}

// decode unmarshals a response body into a generic envelope map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	payload, ok := decode(t, w)["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return payload
}

func validTourBody() map[string]interface{} {
	return map[string]interface{}{
		"name":         "The Forest Hiker",
		"duration":     5,
		"maxGroupSize": 25,
		"difficulty":   "easy",
		"price":        397,
		"summary":      "Breathtaking hike through the Canadian Banff National Park",
		"imageCover":   "tour-1-cover.jpg",
		"startLocation": map[string]interface{}{
			"lat": 34.111745, "lng": -118.113491,
		},
	}
}
