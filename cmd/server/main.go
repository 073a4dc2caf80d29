package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/config"
	"github.com/mariofilbert/natours-api/internal/database"
	"github.com/mariofilbert/natours-api/internal/handler"
	"github.com/mariofilbert/natours-api/internal/mailer"
	"github.com/mariofilbert/natours-api/internal/media"
	"github.com/mariofilbert/natours-api/internal/middleware"
	"github.com/mariofilbert/natours-api/internal/payment"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/router"
	"github.com/mariofilbert/natours-api/internal/service"
	"github.com/mariofilbert/natours-api/internal/wal"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	handler.SetVerboseErrors(!cfg.IsProduction())

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	journal, err := wal.NewJournal(cfg.WebhookJournalPath)
	if err != nil {
		logger.Log.Fatal("Failed to open webhook journal", zap.Error(err))
	}
	defer journal.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	tourRepo := repository.NewTourRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Outbound adapters
	mail := mailer.NewSendgrid(cfg.SendgridAPIKey, cfg.EmailFrom)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	storage := media.NewDiskStorage(cfg.UploadDir)

	// Services
	authService := service.NewAuthService(userRepo, mail, cfg.JWTSecret, cfg.JWTExpiry, cfg.BaseURL)
	userService := service.NewUserService(userRepo)
	tourService := service.NewTourService(tourRepo)
	reviewService := service.NewReviewService(reviewRepo)
	bookingService := service.NewBookingService(bookingRepo, tourRepo, userRepo, gateway, journal, cfg.BaseURL)

	// Re-attempt bookings whose webhook arrived but never persisted
	if err := bookingService.ReplayPending(); err != nil {
		logger.Log.Error("Webhook replay failed", zap.Error(err))
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rateLimiter = middleware.NewRateLimiter(redis.NewClient(opts), middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
	} else {
		logger.Log.Warn("REDIS_URL not set, rate limiting disabled")
	}

	engine := router.New(router.Deps{
		AuthService:  authService,
		Auth:         handler.NewAuthHandler(authService, cfg.JWTCookieExpires, cfg.IsProduction()),
		Users:        handler.NewUserHandler(userRepo, userService, storage),
		Tours:        handler.NewTourHandler(tourRepo, tourService, storage),
		Reviews:      handler.NewReviewHandler(reviewRepo, reviewService),
		Bookings:     handler.NewBookingHandler(bookingRepo, bookingService),
		Webhooks:     handler.NewWebhookHandler(bookingService),
		RateLimiter:  rateLimiter,
		IsProduction: cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
