// Package testutil provides in-memory infrastructure for integration
// tests: sqlite for the database, miniredis for the rate limiter.
// No containers required.
package testutil

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mariofilbert/natours-api/internal/models"
)

// TestDatabase holds an isolated in-memory database.
type TestDatabase struct {
	DB *gorm.DB
}

// SetupTestDatabase opens a fresh in-memory sqlite database and migrates
// the real models. Each call gets its own named memory database, so
// parallel tests never share state.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.TourStartDate{},
		&models.TourLocation{},
		&models.Review{},
		&models.Booking{},
	)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDatabase{DB: db}
}

func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()
	sqlDB, err := td.DB.DB()
	if err != nil {
		t.Logf("Warning: failed to get underlying DB: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("Warning: failed to close database: %v", err)
	}
}

// TestRedis holds an in-memory Redis mock.
type TestRedis struct {
	Server *miniredis.Miniredis
	URL    string
}

func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	return &TestRedis{
		Server: server,
		URL:    fmt.Sprintf("redis://%s", server.Addr()),
	}
}

func (tr *TestRedis) Teardown(t *testing.T) {
	t.Helper()
	tr.Server.Close()
}
