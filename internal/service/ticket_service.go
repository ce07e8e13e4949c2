package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/monitoring"
	"github.com/gatherhub/ticketing/internal/repository"
	"github.com/gatherhub/ticketing/pkg/rabbitmq"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrTicketNotFound = errors.New("ticket not found")

type ScanStatus string

const (
	ScanValid       ScanStatus = "valid"
	ScanAlreadyUsed ScanStatus = "already-used"
	ScanInvalid     ScanStatus = "invalid"
)

// ScanResult is what the gate display renders. For already-used credentials
// it carries the original consumption record so staff can spot replays.
type ScanResult struct {
	Status     ScanStatus
	Ticket     *models.Ticket
	Booking    *models.Booking
	ConsumedAt *time.Time
	ConsumedBy string
}

type TicketService interface {
	Scan(ctx context.Context, token, scannerID string) (*ScanResult, error)
	GetByToken(ctx context.Context, token string) (*models.Ticket, error)
}

type ticketService struct {
	ticketRepo  repository.TicketRepository
	bookingRepo repository.BookingRepository
	publisher   *rabbitmq.Publisher
}

func NewTicketService(ticketRepo repository.TicketRepository, bookingRepo repository.BookingRepository, publisher *rabbitmq.Publisher) TicketService {
	return &ticketService{ticketRepo: ticketRepo, bookingRepo: bookingRepo, publisher: publisher}
}

// Scan validates a presented credential and atomically marks it consumed.
// The check-and-mark is one conditional update, so two simultaneous scans of
// the same credential yield exactly one valid outcome.
func (s *ticketService) Scan(ctx context.Context, token, scannerID string) (*ScanResult, error) {
	now := time.Now()

	consumed, err := s.ticketRepo.Consume(ctx, token, scannerID, now)
	if err != nil {
		return nil, err
	}

	if !consumed {
		ticket, err := s.ticketRepo.FindByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				monitoring.TrackTicketScan(string(ScanInvalid))
				return &ScanResult{Status: ScanInvalid}, nil
			}
			return nil, err
		}

		// Consumed between our update and now, or long ago: either way the
		// credential was already spent.
		result := &ScanResult{
			Status:     ScanAlreadyUsed,
			Ticket:     ticket,
			ConsumedAt: ticket.ConsumedAt,
		}
		if ticket.ConsumedBy != nil {
			result.ConsumedBy = *ticket.ConsumedBy
		}
		monitoring.TrackTicketScan(string(ScanAlreadyUsed))
		return result, nil
	}

	ticket, err := s.ticketRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.FindByID(ctx, ticket.BookingID)
	if err != nil {
		return nil, err
	}

	monitoring.TrackTicketScan(string(ScanValid))
	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyTicketScanned, map[string]any{
			"booking_id": booking.ID,
			"event_id":   booking.EventID,
			"scanned_by": scannerID,
			"scanned_at": now,
		})
	}
	log.WithFields(log.Fields{"booking": booking.ID, "scanner": scannerID}).Info("ticket consumed")

	return &ScanResult{
		Status:     ScanValid,
		Ticket:     ticket,
		Booking:    booking,
		ConsumedAt: &now,
		ConsumedBy: scannerID,
	}, nil
}

func (s *ticketService) GetByToken(ctx context.Context, token string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// issueTicket mints the single admission credential for a booking inside the
// confirming transaction. Idempotent: an existing ticket is returned as is.
func issueTicket(ctx context.Context, tx *gorm.DB, repo repository.TicketRepository, bookingID string) (*models.Ticket, error) {
	existing, err := repo.FindByBookingID(ctx, tx, bookingID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	token, err := newTicketToken()
	if err != nil {
		return nil, err
	}
	ticket := &models.Ticket{
		BookingID: bookingID,
		Token:     token,
	}
	if err := repo.Create(ctx, tx, ticket); err != nil {
		return nil, fmt.Errorf("issue ticket for booking %s: %w", bookingID, err)
	}
	return ticket, nil
}

// newTicketToken returns a 128-bit cryptographically unguessable token.
func newTicketToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
