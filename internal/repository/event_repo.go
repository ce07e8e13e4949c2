package repository

import (
	"context"

	"github.com/gatherhub/ticketing/internal/models"
	"gorm.io/gorm"
)

type EventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Reserve(ctx context.Context, tx *gorm.DB, eventID string, quantity int) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, eventID string, quantity int) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// Reserve attempts the check-and-reserve as a single conditional UPDATE on the
// committed-units counter. Zero rows affected means the capacity guard failed
// (or the event vanished); the caller distinguishes via FindByID.
func (r *eventRepository) Reserve(ctx context.Context, tx *gorm.DB, eventID string, quantity int) (bool, error) {
	res := tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND (capacity IS NULL OR units_reserved + ? <= capacity)", eventID, quantity).
		UpdateColumn("units_reserved", gorm.Expr("units_reserved + ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release returns a booking's units to the pool when it leaves the
// {pending_payment, confirmed} set.
func (r *eventRepository) Release(ctx context.Context, tx *gorm.DB, eventID string, quantity int) error {
	return tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("units_reserved", gorm.Expr("units_reserved - ?", quantity)).Error
}
