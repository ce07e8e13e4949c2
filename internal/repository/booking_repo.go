package repository

import (
	"context"
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindByEventID(ctx context.Context, eventID string, state *models.BookingState) ([]models.Booking, error)
	Transition(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingState, updates map[string]any) (bool, error)
	SetOrderRef(ctx context.Context, id, orderRef string) (bool, error)
	FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ticket").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByEventID(ctx context.Context, eventID string, state *models.BookingState) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if state != nil {
		q = q.Where("state = ?", *state)
	}
	if err := q.Order("created_at ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Transition performs a state change conditioned on the expected prior state.
// Zero rows affected means someone else already acted; the caller must treat
// that as "lost the race", never as a retryable fault.
func (r *bookingRepository) Transition(ctx context.Context, tx *gorm.DB, id string, from, to models.BookingState, updates map[string]any) (bool, error) {
	values := map[string]any{"state": to}
	for k, v := range updates {
		values[k] = v
	}
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND state = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetOrderRef stores the gateway order reference exactly once per booking.
func (r *bookingRepository) SetOrderRef(ctx context.Context, id, orderRef string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND state = ? AND order_ref IS NULL", id, models.StatePendingPayment).
		Update("order_ref", orderRef)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *bookingRepository) FindPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("state = ? AND created_at < ?", models.StatePendingPayment, cutoff).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
