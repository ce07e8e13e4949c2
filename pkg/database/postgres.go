package database

import (
	"github.com/gatherhub/ticketing/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Event{},
		&models.Booking{},
		&models.TeamMember{},
		&models.Ticket{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial index: the expiry sweeper only ever scans pending bookings.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_pending_created
		ON bookings (created_at)
		WHERE state = 'pending_payment'
	`)

	return db
}
