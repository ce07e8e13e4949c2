package models

import "time"

// Event is a read-only mirror of the catalog service's record. The catalog
// owns every column except units_reserved, which is maintained here as the
// committed-units counter (pending_payment + confirmed quantities).
type Event struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	UnitPrice     int64     `gorm:"not null" json:"unit_price"` // minor currency units, 0 = free
	Capacity      *int      `json:"capacity,omitempty"`         // nil = unlimited
	IsTeamEvent   bool      `gorm:"not null;default:false" json:"is_team_event"`
	MinTeamSize   int       `json:"min_team_size"`
	MaxTeamSize   int       `json:"max_team_size"`
	UnitsReserved int       `gorm:"not null;default:0" json:"units_reserved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
