package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhub/ticketing/internal/gateway"
	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/monitoring"
	"github.com/gatherhub/ticketing/internal/repository"
	"github.com/gatherhub/ticketing/pkg/rabbitmq"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrBookingNotPayable     = errors.New("booking is not awaiting payment")
	ErrPaymentVerification   = errors.New("payment verification failed")
	ErrUnknownOrder          = errors.New("order reference does not match booking")
	ErrBookingAlreadySettled = errors.New("booking already settled")
)

type PaymentService interface {
	OpenOrder(ctx context.Context, bookingID string) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error)
	FailPayment(ctx context.Context, bookingID, orderRef, paymentRef, signature string) error
}

type paymentService struct {
	bookingRepo repository.BookingRepository
	eventRepo   repository.EventRepository
	ticketRepo  repository.TicketRepository
	gw          gateway.Gateway
	publisher   *rabbitmq.Publisher
	currency    string
}

func NewPaymentService(
	bookingRepo repository.BookingRepository,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	gw gateway.Gateway,
	publisher *rabbitmq.Publisher,
	currency string,
) PaymentService {
	return &paymentService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		gw:          gw,
		publisher:   publisher,
		currency:    currency,
	}
}

// OpenOrder creates the gateway order for a priced pending booking. Idempotent
// per booking: a retried request returns the stored order reference. The
// gateway call runs outside any transaction, so no reservation lock is held
// across the network.
func (s *paymentService) OpenOrder(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.State != models.StatePendingPayment || booking.Amount == 0 {
		return nil, ErrBookingNotPayable
	}
	if booking.OrderRef != nil {
		return booking, nil
	}

	orderRef, err := s.gw.OpenOrder(ctx, &gateway.OrderRequest{
		BookingID:   booking.ID,
		Amount:      booking.Amount,
		Currency:    s.currency,
		BuyerEmail:  booking.BuyerEmail,
		Description: fmt.Sprintf("booking %s", booking.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("open gateway order: %w", err)
	}

	stored, err := s.bookingRepo.SetOrderRef(ctx, booking.ID, orderRef)
	if err != nil {
		return nil, err
	}
	if !stored {
		// A concurrent OpenOrder stored its reference first, or the booking
		// left pending_payment. The stored reference is the authoritative
		// one; the extra gateway order simply expires unpaid.
		booking, err = s.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if booking.OrderRef == nil {
			return nil, ErrBookingNotPayable
		}
		return booking, nil
	}

	booking.OrderRef = &orderRef
	log.WithFields(log.Fields{"booking": booking.ID, "order": orderRef}).Info("gateway order opened")
	return booking, nil
}

// ConfirmPayment reconciles a gateway confirmation against the booking,
// exactly once. The proof is verified before anything is trusted; a duplicate
// callback for an already-confirmed booking is a safe no-op returning the
// existing ticket.
func (s *paymentService) ConfirmPayment(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if booking.OrderRef == nil || *booking.OrderRef != orderRef {
		monitoring.TrackPaymentReconciled("unknown_order")
		return nil, ErrUnknownOrder
	}

	if err := s.gw.VerifyCallback(&gateway.Callback{
		OrderRef:   orderRef,
		PaymentRef: paymentRef,
		Amount:     booking.Amount,
		Status:     gateway.StatusPaid,
		Signature:  signature,
	}); err != nil {
		monitoring.TrackPaymentReconciled("verification_failed")
		log.WithFields(log.Fields{"booking": bookingID, "order": orderRef}).Warn("callback signature rejected")
		return nil, fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}

	switch booking.State {
	case models.StateConfirmed:
		// Duplicate callback.
		monitoring.TrackPaymentReconciled("duplicate")
		return s.ticketRepo.FindByBookingID(ctx, nil, booking.ID)
	case models.StateCancelled, models.StateFailed:
		// Timed out or failed before the callback arrived; the payment needs
		// an operational refund, not a resurrected booking.
		monitoring.TrackPaymentReconciled("late")
		return nil, ErrBookingAlreadySettled
	}

	var ticket *models.Ticket
	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		ok, err := s.bookingRepo.Transition(ctx, tx, booking.ID,
			models.StatePendingPayment, models.StateConfirmed,
			map[string]any{"confirmed_at": now, "payment_ref": paymentRef})
		if err != nil {
			return err
		}
		if !ok {
			// Someone else already acted; resolved after the transaction.
			return nil
		}
		// Confirmation and issuance are one logical step: never a confirmed
		// booking without a ticket.
		ticket, err = issueTicket(ctx, tx, s.ticketRepo, booking.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if ticket == nil {
		// Lost the race: a concurrent confirmation won, or a cancellation
		// slipped in between our state read and the transition.
		booking, err = s.bookingRepo.FindByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if booking.State != models.StateConfirmed {
			monitoring.TrackPaymentReconciled("late")
			return nil, ErrBookingAlreadySettled
		}
		monitoring.TrackPaymentReconciled("duplicate")
		return s.ticketRepo.FindByBookingID(ctx, nil, booking.ID)
	}

	monitoring.TrackPaymentReconciled("confirmed")
	booking.State = models.StateConfirmed
	booking.PaymentRef = &paymentRef
	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyBookingConfirmed, booking)
	}
	log.WithFields(log.Fields{"booking": booking.ID, "payment": paymentRef}).Info("payment confirmed, ticket issued")
	return ticket, nil
}

// FailPayment records a gateway-reported failure and releases the capacity
// reservation. Verified like a confirmation; harmless if the booking already
// left pending_payment.
func (s *paymentService) FailPayment(ctx context.Context, bookingID, orderRef, paymentRef, signature string) error {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookingNotFound
		}
		return err
	}

	if booking.OrderRef == nil || *booking.OrderRef != orderRef {
		return ErrUnknownOrder
	}

	if err := s.gw.VerifyCallback(&gateway.Callback{
		OrderRef:   orderRef,
		PaymentRef: paymentRef,
		Amount:     booking.Amount,
		Status:     gateway.StatusFailed,
		Signature:  signature,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentVerification, err)
	}

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bookingRepo.Transition(ctx, tx, booking.ID,
			models.StatePendingPayment, models.StateFailed, nil)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return s.eventRepo.Release(ctx, tx, booking.EventID, booking.Quantity)
	})
	if err != nil {
		return err
	}

	monitoring.TrackPaymentReconciled("failed")
	if s.publisher != nil {
		_ = s.publisher.Publish(rabbitmq.KeyBookingFailed, booking)
	}
	return nil
}
