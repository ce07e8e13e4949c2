package dto

type TeamMemberRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	IsLeader bool   `json:"is_leader"`
}

type TeamRequest struct {
	Name    string              `json:"name"`
	Members []TeamMemberRequest `json:"members"`
}

type CreateBookingRequest struct {
	Quantity int          `json:"quantity"`
	Team     *TeamRequest `json:"team,omitempty"`
}

type ConfirmPaymentRequest struct {
	BookingID  string `json:"booking_id"`
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Signature  string `json:"signature"`
}

// GatewayCallbackRequest is the webhook body PayHub posts on settlement;
// Status is PAID or FAILED and Signature covers the canonical payload.
type GatewayCallbackRequest struct {
	BookingID  string `json:"booking_id"`
	OrderRef   string `json:"order_ref"`
	PaymentRef string `json:"payment_ref"`
	Status     string `json:"status"`
	Signature  string `json:"signature"`
}

type ScanRequest struct {
	Token string `json:"token"`
}
