package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	ServerPort  string
	Environment string
	BaseURL     string

	JWTSecret        string
	JWTExpiry        time.Duration
	JWTCookieExpires time.Duration

	SendgridAPIKey string
	EmailFrom      string

	StripeSecretKey     string
	StripeWebhookSecret string

	WebhookJournalPath string
	UploadDir          string

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ServerPort:  getEnv("SERVER_PORT", ":3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpiry:        getEnvAsDuration("JWT_EXPIRY", "2160h"), // 90 days
		JWTCookieExpires: time.Duration(getEnvAsInt("JWT_COOKIE_EXPIRES_DAYS", 90)) * 24 * time.Hour,

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:      getEnv("EMAIL_FROM", "hello@natours.io"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		WebhookJournalPath: getEnv("WEBHOOK_JOURNAL_PATH", "data/webhook_events.log"),
		UploadDir:          getEnv("UPLOAD_DIR", "public/img"),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1h"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	return cfg
}

// IsProduction reports whether the app runs in a production-like deployment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves an environment variable as int with a default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves an environment variable as duration with a default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}
