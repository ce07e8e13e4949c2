package consumer

import (
	"encoding/json"

	"github.com/gatherhub/ticketing/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventConsumer mirrors the catalog service's events into the local database.
// The catalog owns every column except units_reserved, which belongs to the
// capacity ledger and is never touched by the upsert.
type EventConsumer struct {
	db *gorm.DB
}

func NewEventConsumer(db *gorm.DB) *EventConsumer {
	return &EventConsumer{db: db}
}

func (ec *EventConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			ec.handleMessage(msg)
		}
		log.WithField("component", "event_consumer").Info("channel closed, stopping consumer")
	}()
}

func (ec *EventConsumer) handleMessage(msg amqp.Delivery) {
	logger := log.WithField("component", "event_consumer")

	var event models.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		logger.WithError(err).Error("failed to unmarshal catalog event")
		msg.Nack(false, false)
		return
	}
	if event.ID == "" {
		logger.Error("catalog event without id")
		msg.Nack(false, false)
		return
	}

	result := ec.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "unit_price", "capacity",
			"is_team_event", "min_team_size", "max_team_size",
			"updated_at",
		}),
	}).Create(&event)

	if result.Error != nil {
		logger.WithError(result.Error).WithField("event", event.ID).Error("failed to upsert event")
		msg.Nack(false, true) // requeue
		return
	}

	logger.WithFields(log.Fields{"event": event.ID, "name": event.Name}).Info("synced catalog event")
	msg.Ack(false)
}
