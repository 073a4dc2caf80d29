package service

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/metrics"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/payment"
	"github.com/mariofilbert/natours-api/internal/repository"
	"github.com/mariofilbert/natours-api/internal/wal"
	"github.com/mariofilbert/natours-api/pkg/logger"
)

// BookingService owns the checkout and webhook sides of the payment
// flow. Verified webhook events are journaled before the booking write
// and replayed at startup, so a crash in between cannot lose a paid
// booking, and the unique session index keeps replays idempotent.
type BookingService struct {
	bookingRepo *repository.BookingRepository
	tourRepo    *repository.TourRepository
	userRepo    *repository.UserRepository
	gateway     payment.Gateway
	journal     *wal.Journal
	baseURL     string
}

func NewBookingService(
	bookingRepo *repository.BookingRepository,
	tourRepo *repository.TourRepository,
	userRepo *repository.UserRepository,
	gateway payment.Gateway,
	journal *wal.Journal,
	baseURL string,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		tourRepo:    tourRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		journal:     journal,
		baseURL:     baseURL,
	}
}

// CreateCheckoutSession opens a payment session for the tour, priced
// from the server-side record rather than anything the client sent.
func (s *BookingService) CreateCheckoutSession(tourID string, user *models.User) (*payment.Session, error) {
	tour, err := s.tourRepo.GetByID(tourID)
	if err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(payment.CheckoutInput{
		TourID:        tour.ID.String(),
		TourName:      fmt.Sprintf("%s Tour", tour.Name),
		Summary:       tour.Summary,
		ImageURL:      fmt.Sprintf("%s/img/tours/%s", s.baseURL, tour.ImageCover),
		AmountCents:   int64(math.Round(tour.Price * 100)),
		CustomerEmail: user.Email,
		SuccessURL:    fmt.Sprintf("%s/my-tours?alert=booking", s.baseURL),
		CancelURL:     fmt.Sprintf("%s/tour/%s", s.baseURL, tour.Slug),
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Checkout session created",
		zap.String("tour_id", tour.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("session_id", sess.ID),
	)
	return sess, nil
}

// HandleWebhook verifies the event, journals it, and persists the
// booking. A failure after the journal write leaves the entry in place
// for startup replay.
func (s *BookingService) HandleWebhook(payload []byte, signature string) error {
	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	if !event.Completed {
		// Verified but not a checkout completion, nothing to record
		return nil
	}

	entry := wal.Entry{
		EventID:       event.EventID,
		SessionID:     event.SessionID,
		TourRef:       event.TourRef,
		CustomerEmail: event.CustomerEmail,
		AmountTotal:   event.AmountTotal,
		ReceivedAt:    time.Now(),
	}
	if err := s.journal.Append(entry); err != nil {
		return apperror.Wrap(apperror.KindInternal, "failed to journal webhook event", err)
	}

	if err := s.recordBooking(entry); err != nil {
		logger.Log.Error("Webhook booking write failed, entry kept for replay",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
		return err
	}

	if err := s.journal.Prune([]string{entry.EventID}); err != nil {
		logger.Log.Warn("Failed to prune journaled event",
			zap.String("event_id", entry.EventID),
			zap.Error(err),
		)
	}
	return nil
}

// ReplayPending re-attempts journaled events whose bookings never made
// it to the database. Called once at startup.
func (s *BookingService) ReplayPending() error {
	entries, err := s.journal.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	logger.Log.Info("Replaying journaled webhook events",
		zap.Int("count", len(entries)),
	)

	var done []string
	for _, entry := range entries {
		if err := s.recordBooking(entry); err != nil {
			logger.Log.Error("Replay failed for journaled event",
				zap.String("event_id", entry.EventID),
				zap.Error(err),
			)
			continue
		}
		done = append(done, entry.EventID)
	}

	if len(done) > 0 {
		return s.journal.Prune(done)
	}
	return nil
}

func (s *BookingService) recordBooking(entry wal.Entry) error {
	exists, err := s.bookingRepo.ExistsBySession(entry.SessionID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	user, err := s.userRepo.GetByEmail(entry.CustomerEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.Newf(apperror.KindNotFound, "no user found for checkout email")
	}

	tourID, err := s.tourRepo.ParseID(entry.TourRef)
	if err != nil {
		return err
	}

	sessionID := entry.SessionID
	booking := &models.Booking{
		TourID:    tourID,
		UserID:    user.ID,
		Price:     float64(entry.AmountTotal) / 100,
		Paid:      true,
		SessionID: &sessionID,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		// A concurrent delivery already inserted this session
		if apperror.KindOf(err) == apperror.KindDuplicateKey {
			return nil
		}
		return err
	}

	metrics.BookingsRecordedTotal.Inc()
	logger.Log.Info("Booking recorded from webhook",
		zap.String("booking_id", booking.ID.String()),
		zap.String("session_id", entry.SessionID),
	)
	return nil
}
