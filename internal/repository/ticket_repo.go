package repository

import (
	"context"
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"gorm.io/gorm"
)

type TicketRepository interface {
	Create(ctx context.Context, tx *gorm.DB, ticket *models.Ticket) error
	FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) (*models.Ticket, error)
	FindByToken(ctx context.Context, token string) (*models.Ticket, error)
	Consume(ctx context.Context, token, scannerID string, at time.Time) (bool, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, tx *gorm.DB, ticket *models.Ticket) error {
	return tx.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) FindByBookingID(ctx context.Context, tx *gorm.DB, bookingID string) (*models.Ticket, error) {
	if tx == nil {
		tx = r.db
	}
	var ticket models.Ticket
	if err := tx.WithContext(ctx).First(&ticket, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByToken(ctx context.Context, token string) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Consume marks the ticket used, guarded by consumed = false so that two
// simultaneous scans of the same credential cannot both succeed.
func (r *ticketRepository) Consume(ctx context.Context, token, scannerID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("token = ? AND consumed = ?", token, false).
		Updates(map[string]any{
			"consumed":    true,
			"consumed_at": at,
			"consumed_by": scannerID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
