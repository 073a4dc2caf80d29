package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/testutil"
)

func setupReviews(t *testing.T) (*ReviewService, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDatabase(t)
	t.Cleanup(func() { db.Teardown(t) })

	svc := NewReviewService(repository.NewReviewRepository(db.DB))
	return svc, db.DB
}

func tourAggregate(t *testing.T, db *gorm.DB, tour *models.Tour) (float64, int) {
	t.Helper()

	var reloaded models.Tour
	require.NoError(t, db.First(&reloaded, "id = ?", tour.ID).Error)
	return reloaded.RatingsAverage, reloaded.RatingsQuantity
}

func TestCreateReviewRecomputesAggregate(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	alice := testutil.CreateTestUser(t, db, "Alice", "alice@example.com", "pass1234", models.RoleUser)
	bob := testutil.CreateTestUser(t, db, "Bob", "bob@example.com", "pass1234", models.RoleUser)

	require.NoError(t, svc.Create(&models.Review{
		Review: "Fantastic", Rating: 4, TourID: tour.ID, UserID: alice.ID,
	}))
	avg, count := tourAggregate(t, db, tour)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.Create(&models.Review{
		Review: "Even better", Rating: 5, TourID: tour.ID, UserID: bob.ID,
	}))
	avg, count = tourAggregate(t, db, tour)
	assert.Equal(t, 4.5, avg)
	assert.Equal(t, 2, count)
}

func TestCreateReviewRoundsRating(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)

	review := &models.Review{Review: "Nice", Rating: 4.666, TourID: tour.ID, UserID: user.ID}
	require.NoError(t, svc.Create(review))
	assert.Equal(t, 4.7, review.Rating)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)

	err := svc.Create(&models.Review{Review: "", Rating: 4, TourID: tour.ID, UserID: user.ID})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	err = svc.Create(&models.Review{Review: "Too good", Rating: 6, TourID: tour.ID, UserID: user.ID})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestDuplicateReviewPerTourAndUser(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)

	require.NoError(t, svc.Create(&models.Review{
		Review: "First", Rating: 4, TourID: tour.ID, UserID: user.ID,
	}))
	err := svc.Create(&models.Review{
		Review: "Second", Rating: 5, TourID: tour.ID, UserID: user.ID,
	})
	assert.Equal(t, apperror.KindDuplicateKey, apperror.KindOf(err))

	// The aggregate still reflects exactly one review
	avg, count := tourAggregate(t, db, tour)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, 1, count)
}

func TestUpdateReviewRecomputesAggregate(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)
	review := testutil.CreateTestReview(t, db, tour.ID, user.ID, 2)

	previous, updated, err := svc.Update(review.ID.String(), map[string]interface{}{"rating": 5.0})
	require.NoError(t, err)
	assert.Equal(t, 2.0, previous.Rating)
	assert.Equal(t, 5.0, updated.Rating)

	avg, count := tourAggregate(t, db, tour)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, 1, count)
}

func TestUpdateReviewPersistsRoundedRating(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)
	review := testutil.CreateTestReview(t, db, tour.ID, user.ID, 2)

	_, updated, err := svc.Update(review.ID.String(), map[string]interface{}{"rating": 4.666})
	require.NoError(t, err)
	assert.Equal(t, 4.7, updated.Rating)

	// The stored row carries the same rounded value as the response
	var stored models.Review
	require.NoError(t, db.First(&stored, "id = ?", review.ID).Error)
	assert.Equal(t, 4.7, stored.Rating)
}

func TestDeleteLastReviewResetsBaseline(t *testing.T) {
	svc, db := setupReviews(t)
	tour := testutil.CreateTestTour(t, db)
	user := testutil.DefaultTestUser(t, db)
	review := testutil.CreateTestReview(t, db, tour.ID, user.ID, 2)

	require.NoError(t, svc.Delete(review.ID.String()))

	avg, count := tourAggregate(t, db, tour)
	assert.Equal(t, models.DefaultRatingsAverage, avg)
	assert.Equal(t, 0, count)
}

func TestDeleteUnknownReview(t *testing.T) {
	svc, db := setupReviews(t)
	_ = db

	err := svc.Delete("9b7bc47a-5dbe-4f3c-9f6a-8f2a2f9b0001")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = svc.Delete("not-a-uuid")
	assert.Equal(t, apperror.KindInvalidIdentifier, apperror.KindOf(err))
}
