package models

import "time"

// Ticket is the single-use admission credential for a confirmed booking.
// One per booking, minted in the confirming transaction, never reissued.
type Ticket struct {
	ID         uint       `gorm:"primaryKey" json:"-"`
	BookingID  string     `gorm:"size:36;not null;uniqueIndex" json:"booking_id"`
	Token      string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	Consumed   bool       `gorm:"not null;default:false" json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	ConsumedBy *string    `json:"consumed_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
