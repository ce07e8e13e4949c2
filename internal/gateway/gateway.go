package gateway

import (
	"context"
	"errors"
)

// Callback statuses reported by the payment gateway.
const (
	StatusPaid   = "PAID"
	StatusFailed = "FAILED"
)

var ErrSignatureMismatch = errors.New("gateway signature mismatch")

type OrderRequest struct {
	BookingID   string
	Amount      int64 // minor currency units
	Currency    string
	BuyerEmail  string
	Description string
}

type Callback struct {
	OrderRef   string
	PaymentRef string
	Amount     int64
	Status     string
	Signature  string
}

// Gateway is the single payment-gateway abstraction the settlement core
// talks to. OpenOrder creates an order and returns the gateway's reference;
// VerifyCallback checks a webhook's integrity proof before anything in the
// payload is trusted.
type Gateway interface {
	OpenOrder(ctx context.Context, req *OrderRequest) (string, error)
	VerifyCallback(cb *Callback) error
}
