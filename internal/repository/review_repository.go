package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
)

type ReviewRepository struct {
	*Repository[models.Review]
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{Repository: New[models.Review](db, "review", "User")}
}

// TourIDOf returns the tour a review belongs to. Callers capture this
// before an update or delete executes; afterwards the association is no
// longer retrievable for a deleted row.
func (r *ReviewRepository) TourIDOf(reviewID string) (uuid.UUID, error) {
	uid, err := r.ParseID(reviewID)
	if err != nil {
		return uuid.Nil, err
	}

	var review models.Review
	if err := r.db.Select("tour_id").First(&review, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, apperror.New(apperror.KindNotFound, "no review found with that ID")
		}
		return uuid.Nil, apperror.FromDB(err, "review")
	}
	return review.TourID, nil
}

// RecomputeTourRatings refreshes a tour's denormalized rating aggregate
// from its current review set. The count and the one-decimal mean are
// computed by scalar subqueries inside a single UPDATE, so concurrent
// recomputes are serialized by the database rather than racing on a
// read-modify-write in the application. An empty review set resets the
// aggregate to its baseline instead of leaving stale values.
func (r *ReviewRepository) RecomputeTourRatings(tourID uuid.UUID) error {
	err := r.db.Exec(`
		UPDATE tours SET
			ratings_quantity = (SELECT COUNT(*) FROM reviews WHERE tour_id = ?),
			ratings_average = COALESCE(
				(SELECT ROUND(AVG(rating * 1.0), 1) FROM reviews WHERE tour_id = ?), ?)
		WHERE id = ?`,
		tourID, tourID, models.DefaultRatingsAverage, tourID,
	).Error
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to recompute tour ratings", err)
	}
	return nil
}
