package service

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

// ReviewService wraps review writes so every successful mutation is
// followed by a recomputation of the owning tour's rating aggregate.
type ReviewService struct {
	reviewRepo *repository.ReviewRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo}
}

func (s *ReviewService) Create(review *models.Review) error {
	if err := s.reviewRepo.Create(review); err != nil {
		return err
	}
	s.recompute(review.TourID)
	return nil
}

func (s *ReviewService) Update(id string, fields map[string]interface{}) (*models.Review, *models.Review, error) {
	// The tour reference must be read before the row changes
	tourID, err := s.reviewRepo.TourIDOf(id)
	if err != nil {
		return nil, nil, err
	}

	previous, updated, err := s.reviewRepo.UpdateByID(id, fields)
	if err != nil {
		return nil, nil, err
	}
	s.recompute(tourID)
	return previous, updated, nil
}

func (s *ReviewService) Delete(id string) error {
	tourID, err := s.reviewRepo.TourIDOf(id)
	if err != nil {
		return err
	}

	if err := s.reviewRepo.DeleteByID(id); err != nil {
		return err
	}
	s.recompute(tourID)
	return nil
}

// recompute failures leave a stale aggregate but never fail the review
// write itself; the next mutation repairs it.
func (s *ReviewService) recompute(tourID uuid.UUID) {
	if err := s.reviewRepo.RecomputeTourRatings(tourID); err != nil {
		logger.Log.Error("Failed to recompute tour ratings",
			zap.String("tour_id", tourID.String()),
			zap.Error(err),
		)
	}
}
