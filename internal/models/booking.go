package models

import "time"

type BookingState string

const (
	StatePendingPayment BookingState = "pending_payment"
	StateConfirmed      BookingState = "confirmed"
	StateCancelled      BookingState = "cancelled"
	StateFailed         BookingState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s BookingState) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled || s == StateFailed
}

type Booking struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	EventID     string       `gorm:"size:36;not null;index:idx_bookings_event_state" json:"event_id"`
	BuyerEmail  string       `gorm:"not null" json:"buyer_email"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	Amount      int64        `gorm:"not null" json:"amount"` // minor currency units
	State       BookingState `gorm:"type:varchar(20);not null;default:'pending_payment';index:idx_bookings_event_state" json:"state"`
	TeamName    *string      `json:"team_name,omitempty"`
	OrderRef    *string      `json:"order_ref,omitempty"`   // gateway order, priced bookings only
	PaymentRef  *string      `json:"payment_ref,omitempty"` // gateway payment, set on confirmation
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ConfirmedAt *time.Time   `json:"confirmed_at,omitempty"`

	Event   *Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Members []TeamMember `gorm:"foreignKey:BookingID" json:"members,omitempty"`
	Ticket  *Ticket      `gorm:"foreignKey:BookingID" json:"ticket,omitempty"`
}

type TeamMember struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	BookingID string `gorm:"size:36;not null;index" json:"-"`
	Position  int    `gorm:"not null" json:"position"`
	Name      string `gorm:"not null" json:"name"`
	Phone     string `gorm:"not null" json:"phone"`
	IsLeader  bool   `gorm:"not null;default:false" json:"is_leader"`
}
