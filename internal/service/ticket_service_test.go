package service

import (
	"context"
	"testing"
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Mock TicketRepository ---

type mockTicketRepo struct {
	consumeFn         func(ctx context.Context, token, scannerID string, at time.Time) (bool, error)
	findByTokenFn     func(ctx context.Context, token string) (*models.Ticket, error)
	findByBookingIDFn func(ctx context.Context, tx *gorm.DB, bookingID string) (*models.Ticket, error)
}

func (m *mockTicketRepo) Create(ctx context.Context, tx *gorm.DB, ticket *models.Ticket) error {
	return nil
}
func (m *mockTicketRepo) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) (*models.Ticket, error) {
	if m.findByBookingIDFn != nil {
		return m.findByBookingIDFn(ctx, tx, bookingID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockTicketRepo) FindByToken(ctx context.Context, token string) (*models.Ticket, error) {
	return m.findByTokenFn(ctx, token)
}
func (m *mockTicketRepo) Consume(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	return m.consumeFn(ctx, token, scannerID, at)
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	findByIDFn func(ctx context.Context, id string) (*models.Booking, error)
}

func (m *mockBookingRepo) Create(ctx context.Context, tx *gorm.DB, b *models.Booking) error {
	return nil
}
func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockBookingRepo) FindByEventID(ctx context.Context, eventID string, state *models.BookingState) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) Transition(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingState, updates map[string]any) (bool, error) {
	return false, nil
}
func (m *mockBookingRepo) SetOrderRef(ctx context.Context, id, orderRef string) (bool, error) {
	return false, nil
}
func (m *mockBookingRepo) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	return nil, nil
}
func (m *mockBookingRepo) GetDB() *gorm.DB { return nil }

// --- Tests ---

func TestScan_Valid(t *testing.T) {
	ticket := &models.Ticket{BookingID: "bkg-1", Token: "tok-1"}
	booking := &models.Booking{ID: "bkg-1", EventID: "evt-1", BuyerEmail: "alice@example.com", Quantity: 2}

	tickets := &mockTicketRepo{
		consumeFn: func(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
			assert.Equal(t, "tok-1", token)
			assert.Equal(t, "gateX", scannerID)
			return true, nil
		},
		findByTokenFn: func(ctx context.Context, token string) (*models.Ticket, error) {
			return ticket, nil
		},
	}
	bookings := &mockBookingRepo{
		findByIDFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return booking, nil
		},
	}

	svc := NewTicketService(tickets, bookings, nil)
	result, err := svc.Scan(context.Background(), "tok-1", "gateX")

	require.NoError(t, err)
	assert.Equal(t, ScanValid, result.Status)
	assert.Equal(t, "gateX", result.ConsumedBy)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "alice@example.com", result.Booking.BuyerEmail)
}

func TestScan_UnknownToken(t *testing.T) {
	tickets := &mockTicketRepo{
		consumeFn: func(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
			return false, nil
		},
		findByTokenFn: func(ctx context.Context, token string) (*models.Ticket, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewTicketService(tickets, &mockBookingRepo{}, nil)
	result, err := svc.Scan(context.Background(), "no-such-token", "gateX")

	require.NoError(t, err)
	assert.Equal(t, ScanInvalid, result.Status)
	assert.Nil(t, result.Booking)
}

func TestScan_AlreadyUsed(t *testing.T) {
	usedAt := time.Now().Add(-10 * time.Minute)
	usedBy := "gateX"
	tickets := &mockTicketRepo{
		consumeFn: func(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
			return false, nil
		},
		findByTokenFn: func(ctx context.Context, token string) (*models.Ticket, error) {
			return &models.Ticket{
				BookingID:  "bkg-1",
				Token:      token,
				Consumed:   true,
				ConsumedAt: &usedAt,
				ConsumedBy: &usedBy,
			}, nil
		},
	}

	svc := NewTicketService(tickets, &mockBookingRepo{}, nil)
	result, err := svc.Scan(context.Background(), "tok-1", "gateY")

	require.NoError(t, err)
	assert.Equal(t, ScanAlreadyUsed, result.Status)
	// Original consumption record is reported so staff can detect replay.
	assert.Equal(t, "gateX", result.ConsumedBy)
	require.NotNil(t, result.ConsumedAt)
	assert.WithinDuration(t, usedAt, *result.ConsumedAt, time.Second)
}

func TestNewTicketToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := newTicketToken()
		require.NoError(t, err)
		assert.Len(t, token, 32) // 128 bits, hex encoded
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
