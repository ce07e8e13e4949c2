package handler

import (
	"errors"
	"net/http"

	"github.com/gatherhub/ticketing/internal/dto"
	"github.com/gatherhub/ticketing/internal/gateway"
	"github.com/gatherhub/ticketing/internal/middleware"
	"github.com/gatherhub/ticketing/internal/service"
	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	svc        service.PaymentService
	bookingSvc service.BookingService
	currency   string
}

func NewPaymentHandler(svc service.PaymentService, bookingSvc service.BookingService, currency string) *PaymentHandler {
	return &PaymentHandler{svc: svc, bookingSvc: bookingSvc, currency: currency}
}

// RegisterRoutes wires the buyer-facing endpoints onto the authenticated
// group and the gateway webhook onto the bare router; the webhook has no
// bearer token, its signature is its authentication.
func (h *PaymentHandler) RegisterRoutes(g *echo.Group, e *echo.Echo) {
	g.POST("/bookings/:id/order", h.OpenOrder)
	g.POST("/bookings/confirm", h.ConfirmPayment)
	e.POST("/api/v1/payments/callback", h.GatewayCallback)
}

func (h *PaymentHandler) OpenOrder(c echo.Context) error {
	ctx := c.Request().Context()

	booking, err := h.bookingSvc.GetBooking(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if booking.BuyerEmail != middleware.BuyerEmail(c) {
		return echo.NewHTTPError(http.StatusForbidden, "not your booking")
	}

	booking, err = h.svc.OpenOrder(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotPayable) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return c.JSON(http.StatusOK, dto.OrderResponse{
		BookingID: booking.ID,
		OrderRef:  *booking.OrderRef,
		Amount:    booking.Amount,
		Currency:  h.currency,
	})
}

func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	var req dto.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.BookingID == "" || req.OrderRef == "" || req.PaymentRef == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "booking_id, order_ref and payment_ref are required")
	}

	return h.confirm(c, req.BookingID, req.OrderRef, req.PaymentRef, req.Signature)
}

func (h *PaymentHandler) GatewayCallback(c echo.Context) error {
	var req dto.GatewayCallbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Status == gateway.StatusFailed {
		err := h.svc.FailPayment(c.Request().Context(), req.BookingID, req.OrderRef, req.PaymentRef, req.Signature)
		switch {
		case err == nil:
			return c.NoContent(http.StatusOK)
		case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrUnknownOrder):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPaymentVerification):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return h.confirm(c, req.BookingID, req.OrderRef, req.PaymentRef, req.Signature)
}

func (h *PaymentHandler) confirm(c echo.Context, bookingID, orderRef, paymentRef, signature string) error {
	ticket, err := h.svc.ConfirmPayment(c.Request().Context(), bookingID, orderRef, paymentRef, signature)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrUnknownOrder):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrPaymentVerification):
			// Booking stays pending; the caller may retry with a valid proof.
			return echo.NewHTTPError(http.StatusUnauthorized, "payment not verified, please retry")
		case errors.Is(err, service.ErrBookingAlreadySettled):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ConfirmResponse{
		BookingID:   bookingID,
		TicketToken: ticket.Token,
	})
}
