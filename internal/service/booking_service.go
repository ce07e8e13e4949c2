package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/monitoring"
	"github.com/gatherhub/ticketing/internal/repository"
	"github.com/gatherhub/ticketing/pkg/rabbitmq"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrCapacityExceeded = errors.New("event capacity exceeded")
)

type BookingService interface {
	CreateBooking(ctx context.Context, eventID, buyer string, quantity int, roster *Roster) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, eventID string, state *models.BookingState) ([]models.Booking, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	eventRepo   repository.EventRepository
	ticketRepo  repository.TicketRepository
	publisher   *rabbitmq.Publisher
	maxUnits    int
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	publisher *rabbitmq.Publisher,
	maxUnits int,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		publisher:   publisher,
		maxUnits:    maxUnits,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, eventID, buyer string, quantity int, roster *Roster) (*models.Booking, error) {
	if quantity < 1 || quantity > s.maxUnits {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidQuantity, s.maxUnits)
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	// Roster rules run before anything is written, so rejected bookings
	// never touch the ledger.
	if event.IsTeamEvent {
		if roster == nil {
			return nil, fmt.Errorf("%w: this event requires a team roster", ErrInvalidTeam)
		}
		if err := ValidateRoster(event, roster); err != nil {
			return nil, err
		}
	} else if roster != nil {
		return nil, fmt.Errorf("%w: this event does not take team bookings", ErrInvalidTeam)
	}

	booking := &models.Booking{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		BuyerEmail: buyer,
		Quantity:   quantity,
		Amount:     event.UnitPrice * int64(quantity),
		State:      models.StatePendingPayment,
	}
	if roster != nil {
		name := roster.Name
		booking.TeamName = &name
		for i, m := range roster.Members {
			booking.Members = append(booking.Members, models.TeamMember{
				BookingID: booking.ID,
				Position:  i + 1,
				Name:      m.Name,
				Phone:     m.Phone,
				IsLeader:  m.IsLeader,
			})
		}
	}

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Atomic check-and-reserve against the committed-units counter
		reserved, err := s.eventRepo.Reserve(ctx, tx, event.ID, quantity)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrCapacityExceeded
		}

		// 2. Record the purchase intent under the reservation
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		// 3. Free bookings settle immediately: no gateway round trip
		if booking.Amount == 0 {
			now := time.Now()
			ok, err := s.bookingRepo.Transition(ctx, tx, booking.ID,
				models.StatePendingPayment, models.StateConfirmed,
				map[string]any{"confirmed_at": now})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("booking %s: confirm transition lost", booking.ID)
			}
			ticket, err := issueTicket(ctx, tx, s.ticketRepo, booking.ID)
			if err != nil {
				return err
			}
			booking.State = models.StateConfirmed
			booking.ConfirmedAt = &now
			booking.Ticket = ticket
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			monitoring.TrackCapacityRejection()
		}
		return nil, err
	}

	monitoring.TrackBookingCreated(string(booking.State))
	if booking.State == models.StateConfirmed && s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyBookingConfirmed, booking)
	}

	log.WithFields(log.Fields{
		"booking": booking.ID,
		"event":   booking.EventID,
		"qty":     quantity,
		"state":   booking.State,
	}).Info("booking created")

	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	// Idempotent: a booking already out of pending_payment is left alone.
	if booking.State.Terminal() {
		return booking, nil
	}

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookingRepo.Transition(ctx, tx, booking.ID,
			models.StatePendingPayment, models.StateCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent confirmation or cancellation won; nothing to
			// release.
			return nil
		}
		booking.State = models.StateCancelled
		return s.eventRepo.Release(ctx, tx, booking.EventID, booking.Quantity)
	})
	if err != nil {
		return nil, err
	}

	if booking.State == models.StateCancelled && s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyBookingCancelled, booking)
	}
	return s.bookingRepo.FindByID(ctx, bookingID)
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, eventID string, state *models.BookingState) ([]models.Booking, error) {
	return s.bookingRepo.FindByEventID(ctx, eventID, state)
}

// ExpireStale cancels pending-payment bookings older than the timeout so
// abandoned checkouts release their capacity. Cancellation goes through the
// same conditional transition as an explicit cancel, so it cannot race a
// concurrent confirmation.
func (s *bookingService) ExpireStale(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.bookingRepo.FindPendingOlderThan(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range stale {
		cancelled, err := s.CancelBooking(ctx, b.ID)
		if err != nil {
			log.WithError(err).WithField("booking", b.ID).Warn("expiry cancel failed")
			continue
		}
		if cancelled.State == models.StateCancelled {
			expired++
		}
	}

	if expired > 0 {
		monitoring.TrackPendingExpired(expired)
		log.WithField("count", expired).Info("expired stale pending bookings")
	}
	return expired, nil
}
