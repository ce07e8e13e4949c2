package dto

import (
	"time"

	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/service"
)

type BookingResponse struct {
	ID              string              `json:"booking_id"`
	EventID         string              `json:"event_id"`
	BuyerEmail      string              `json:"buyer_email"`
	Quantity        int                 `json:"quantity"`
	Amount          int64               `json:"amount"`
	State           models.BookingState `json:"state"`
	RequiresPayment bool                `json:"requires_payment"`
	TeamName        *string             `json:"team_name,omitempty"`
	OrderRef        *string             `json:"order_ref,omitempty"`
	TicketToken     string              `json:"ticket_token,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	ConfirmedAt     *time.Time          `json:"confirmed_at,omitempty"`
}

type OrderResponse struct {
	BookingID string `json:"booking_id"`
	OrderRef  string `json:"order_ref"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type ConfirmResponse struct {
	BookingID   string `json:"booking_id"`
	TicketToken string `json:"ticket_token"`
}

type BookingSummary struct {
	BookingID  string              `json:"booking_id"`
	EventID    string              `json:"event_id"`
	BuyerEmail string              `json:"buyer_email"`
	Quantity   int                 `json:"quantity"`
	TeamName   *string             `json:"team_name,omitempty"`
	Members    []models.TeamMember `json:"members,omitempty"`
}

type ScanResponse struct {
	Result    string          `json:"result"`
	ScannedAt *time.Time      `json:"scanned_at,omitempty"`
	ScannedBy string          `json:"scanned_by,omitempty"`
	Booking   *BookingSummary `json:"booking,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:              b.ID,
		EventID:         b.EventID,
		BuyerEmail:      b.BuyerEmail,
		Quantity:        b.Quantity,
		Amount:          b.Amount,
		State:           b.State,
		RequiresPayment: b.State == models.StatePendingPayment && b.Amount > 0,
		TeamName:        b.TeamName,
		OrderRef:        b.OrderRef,
		CreatedAt:       b.CreatedAt,
		ConfirmedAt:     b.ConfirmedAt,
	}
	if b.Ticket != nil {
		resp.TicketToken = b.Ticket.Token
	}
	return resp
}

func ToScanResponse(r *service.ScanResult) ScanResponse {
	resp := ScanResponse{
		Result:    string(r.Status),
		ScannedAt: r.ConsumedAt,
		ScannedBy: r.ConsumedBy,
	}
	if r.Booking != nil {
		resp.Booking = &BookingSummary{
			BookingID:  r.Booking.ID,
			EventID:    r.Booking.EventID,
			BuyerEmail: r.Booking.BuyerEmail,
			Quantity:   r.Booking.Quantity,
			TeamName:   r.Booking.TeamName,
			Members:    r.Booking.Members,
		}
	}
	return resp
}

func (t *TeamRequest) ToRoster() *service.Roster {
	if t == nil {
		return nil
	}
	roster := &service.Roster{Name: t.Name}
	for _, m := range t.Members {
		roster.Members = append(roster.Members, service.RosterMember{
			Name:     m.Name,
			Phone:    m.Phone,
			IsLeader: m.IsLeader,
		})
	}
	return roster
}
