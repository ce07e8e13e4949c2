package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gatherhub/ticketing/internal/dto"
	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenOrder(t *testing.T) {
	orderRef := "ORD-123"
	opened := pendingBooking()
	opened.OrderRef = &orderRef

	payments := &mockPaymentService{
		openOrderFn: func(ctx context.Context, bookingID string) (*models.Booking, error) {
			assert.Equal(t, "bkg-1", bookingID)
			return opened, nil
		},
	}
	bookings := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return pendingBooking(), nil
		},
	}
	h := NewPaymentHandler(payments, bookings, "INR")

	c, rec := newContext(http.MethodPost, "/", "", "alice@example.com", "buyer")
	c.SetParamNames("id")
	c.SetParamValues("bkg-1")

	require.NoError(t, h.OpenOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-123", resp.OrderRef)
	assert.Equal(t, int64(50000), resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
}

func TestOpenOrder_NotOwner(t *testing.T) {
	bookings := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return pendingBooking(), nil
		},
	}
	h := NewPaymentHandler(&mockPaymentService{}, bookings, "INR")

	c, _ := newContext(http.MethodPost, "/", "", "bob@example.com", "buyer")
	c.SetParamNames("id")
	c.SetParamValues("bkg-1")

	err := h.OpenOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestOpenOrder_NotPayable(t *testing.T) {
	payments := &mockPaymentService{
		openOrderFn: func(ctx context.Context, bookingID string) (*models.Booking, error) {
			return nil, service.ErrBookingNotPayable
		},
	}
	bookings := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return pendingBooking(), nil
		},
	}
	h := NewPaymentHandler(payments, bookings, "INR")

	c, _ := newContext(http.MethodPost, "/", "", "alice@example.com", "buyer")
	c.SetParamNames("id")
	c.SetParamValues("bkg-1")

	err := h.OpenOrder(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestConfirmPayment(t *testing.T) {
	payments := &mockPaymentService{
		confirmFn: func(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error) {
			assert.Equal(t, "bkg-1", bookingID)
			assert.Equal(t, "ORD-123", orderRef)
			assert.Equal(t, "PAY-9", paymentRef)
			assert.Equal(t, "sig", signature)
			return &models.Ticket{BookingID: "bkg-1", Token: "tok-1"}, nil
		},
	}
	h := NewPaymentHandler(payments, &mockBookingService{}, "INR")

	body := `{"booking_id":"bkg-1","order_ref":"ORD-123","payment_ref":"PAY-9","signature":"sig"}`
	c, rec := newContext(http.MethodPost, "/", body, "alice@example.com", "buyer")

	require.NoError(t, h.ConfirmPayment(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ConfirmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.TicketToken)
}

func TestConfirmPayment_MissingFields(t *testing.T) {
	h := NewPaymentHandler(&mockPaymentService{}, &mockBookingService{}, "INR")

	c, _ := newContext(http.MethodPost, "/", `{"booking_id":"bkg-1"}`, "alice@example.com", "buyer")

	err := h.ConfirmPayment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestConfirmPayment_BadProof(t *testing.T) {
	payments := &mockPaymentService{
		confirmFn: func(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error) {
			return nil, service.ErrPaymentVerification
		},
	}
	h := NewPaymentHandler(payments, &mockBookingService{}, "INR")

	body := `{"booking_id":"bkg-1","order_ref":"ORD-123","payment_ref":"PAY-9","signature":"bad"}`
	c, _ := newContext(http.MethodPost, "/", body, "alice@example.com", "buyer")

	err := h.ConfirmPayment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, "payment not verified, please retry", he.Message)
}

func TestConfirmPayment_AlreadySettled(t *testing.T) {
	payments := &mockPaymentService{
		confirmFn: func(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error) {
			return nil, service.ErrBookingAlreadySettled
		},
	}
	h := NewPaymentHandler(payments, &mockBookingService{}, "INR")

	body := `{"booking_id":"bkg-1","order_ref":"ORD-123","payment_ref":"PAY-9","signature":"sig"}`
	c, _ := newContext(http.MethodPost, "/", body, "alice@example.com", "buyer")

	err := h.ConfirmPayment(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestGatewayCallback_Failed(t *testing.T) {
	failed := false
	payments := &mockPaymentService{
		failFn: func(ctx context.Context, bookingID, orderRef, paymentRef, signature string) error {
			failed = true
			assert.Equal(t, "bkg-1", bookingID)
			return nil
		},
	}
	h := NewPaymentHandler(payments, &mockBookingService{}, "INR")

	body := `{"booking_id":"bkg-1","order_ref":"ORD-123","payment_ref":"PAY-9","status":"FAILED","signature":"sig"}`
	c, rec := newContext(http.MethodPost, "/", body, "", "")

	require.NoError(t, h.GatewayCallback(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, failed)
}

func TestGatewayCallback_Paid(t *testing.T) {
	payments := &mockPaymentService{
		confirmFn: func(ctx context.Context, bookingID, orderRef, paymentRef, signature string) (*models.Ticket, error) {
			return &models.Ticket{BookingID: bookingID, Token: "tok-1"}, nil
		},
	}
	h := NewPaymentHandler(payments, &mockBookingService{}, "INR")

	body := `{"booking_id":"bkg-1","order_ref":"ORD-123","payment_ref":"PAY-9","status":"PAID","signature":"sig"}`
	c, rec := newContext(http.MethodPost, "/", body, "", "")

	require.NoError(t, h.GatewayCallback(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ConfirmResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.TicketToken)
}
