// Package router assembles the gin engine: global middleware, the
// payment webhook, and the versioned API surface.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mariofilbert/natours-api/internal/handler"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/service"
)

type Deps struct {
	AuthService *service.AuthService

	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Tours    *handler.TourHandler
	Reviews  *handler.ReviewHandler
	Bookings *handler.BookingHandler
	Webhooks *handler.WebhookHandler

	// nil disables rate limiting (tests, limiter outage at boot)
	RateLimiter *middleware.RateLimiter

	IsProduction bool
}

func New(deps Deps) *gin.Engine {
	if deps.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if !deps.IsProduction {
		engine.Use(gin.Logger())
	}
	engine.Use(middleware.SecurityHeaders())
	engine.Use(middleware.HSTS(deps.IsProduction))
	engine.Use(middleware.Metrics())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins:  false,
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// The webhook reads its own raw body and sits outside the rate
	// limiter: the payment processor retries on 429
	engine.POST("/webhook-checkout", deps.Webhooks.HandleCheckout)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	api := engine.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Middleware())
	}
	v1 := api.Group("/v1")

	protect := middleware.Protect(deps.AuthService)

	registerUserRoutes(v1, deps, protect)
	registerTourRoutes(v1, deps, protect)
	registerReviewRoutes(v1, deps, protect)
	registerBookingRoutes(v1, deps, protect)

	return engine
}

func registerUserRoutes(v1 *gin.RouterGroup, deps Deps, protect gin.HandlerFunc) {
	users := v1.Group("/users")

	users.POST("/signup", deps.Auth.Signup)
	users.POST("/login", deps.Auth.Login)
	users.GET("/logout", deps.Auth.Logout)
	users.POST("/forgotPassword", deps.Auth.ForgotPassword)
	users.PATCH("/resetPassword/:token", deps.Auth.ResetPassword)

	// Everything below requires a session
	users.Use(protect)

	users.PATCH("/updateMyPassword", deps.Auth.UpdateMyPassword)
	users.GET("/me", deps.Users.GetMe)
	users.PATCH("/updateMe", deps.Users.UpdateMe)
	users.DELETE("/deleteMe", deps.Users.DeleteMe)

	admin := users.Group("", middleware.RestrictTo(models.RoleAdmin))
	admin.GET("", deps.Users.GetAll)
	admin.POST("", deps.Users.CreateOne)
	admin.GET("/:id", deps.Users.GetOne)
	admin.PATCH("/:id", deps.Users.UpdateOne)
	admin.DELETE("/:id", deps.Users.DeleteOne)
}

func registerTourRoutes(v1 *gin.RouterGroup, deps Deps, protect gin.HandlerFunc) {
	tours := v1.Group("/tours")
	manageTours := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)

	// Public reads resolve the caller when a token happens to be present,
	// but never require one
	maybeAuth := middleware.MaybeAuthenticate(deps.AuthService)

	tours.GET("/top-5-cheap", maybeAuth, handler.AliasTopTours, deps.Tours.GetAll)
	tours.GET("/tour-stats", deps.Tours.GetStats)
	tours.GET("/monthly-plan/:year",
		protect,
		middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide),
		deps.Tours.GetMonthlyPlan,
	)
	tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", deps.Tours.GetToursWithin)
	tours.GET("/distances/:latlng/unit/:unit", deps.Tours.GetDistances)

	tours.GET("", maybeAuth, deps.Tours.GetAll)
	tours.POST("", protect, manageTours, deps.Tours.CreateOne)
	tours.GET("/:tourId", maybeAuth, deps.Tours.GetOne)
	tours.PATCH("/:tourId", protect, manageTours, deps.Tours.UpdateOne)
	tours.DELETE("/:tourId", protect, manageTours, deps.Tours.DeleteOne)
	tours.PATCH("/:tourId/images", protect, manageTours, deps.Tours.UploadImages)

	// Nested review collection of one tour
	nested := tours.Group("/:tourId/reviews", protect)
	nested.GET("", deps.Reviews.GetAll)
	nested.POST("", middleware.RestrictTo(models.RoleUser), deps.Reviews.CreateOne)
}

func registerReviewRoutes(v1 *gin.RouterGroup, deps Deps, protect gin.HandlerFunc) {
	reviews := v1.Group("/reviews", protect)

	reviews.GET("", deps.Reviews.GetAll)
	reviews.POST("", middleware.RestrictTo(models.RoleUser), deps.Reviews.CreateOne)
	reviews.GET("/:id", deps.Reviews.GetOne)

	manage := middleware.RestrictTo(models.RoleUser, models.RoleAdmin)
	reviews.PATCH("/:id", manage, deps.Reviews.UpdateOne)
	reviews.DELETE("/:id", manage, deps.Reviews.DeleteOne)
}

func registerBookingRoutes(v1 *gin.RouterGroup, deps Deps, protect gin.HandlerFunc) {
	bookings := v1.Group("/bookings", protect)

	bookings.GET("/checkout-session/:tourId", deps.Bookings.GetCheckoutSession)
	bookings.GET("/my-bookings", deps.Bookings.GetMyBookings)

	manage := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)
	bookings.GET("", manage, deps.Bookings.GetAll)
	bookings.POST("", manage, deps.Bookings.CreateOne)
	bookings.GET("/:id", manage, deps.Bookings.GetOne)
	bookings.PATCH("/:id", manage, deps.Bookings.UpdateOne)
	bookings.DELETE("/:id", manage, deps.Bookings.DeleteOne)
}
