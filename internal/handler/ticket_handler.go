package handler

import (
	"errors"
	"net/http"

	"github.com/gatherhub/ticketing/internal/dto"
	"github.com/gatherhub/ticketing/internal/middleware"
	"github.com/gatherhub/ticketing/internal/service"
	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"
)

type TicketHandler struct {
	svc        service.TicketService
	bookingSvc service.BookingService
}

func NewTicketHandler(svc service.TicketService, bookingSvc service.BookingService) *TicketHandler {
	return &TicketHandler{svc: svc, bookingSvc: bookingSvc}
}

func (h *TicketHandler) RegisterRoutes(g *echo.Group, scanLimit echo.MiddlewareFunc) {
	scan := []echo.MiddlewareFunc{middleware.RequireStaff()}
	if scanLimit != nil {
		scan = append(scan, scanLimit)
	}
	g.POST("/tickets/scan", h.Scan, scan...)
	g.GET("/tickets/:token/qr", h.QRCode)
}

func (h *TicketHandler) Scan(c echo.Context) error {
	var req dto.ScanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}

	result, err := h.svc.Scan(c.Request().Context(), req.Token, middleware.BuyerEmail(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// All three outcomes are 200s; the gate UI renders from the result field.
	return c.JSON(http.StatusOK, dto.ToScanResponse(result))
}

func (h *TicketHandler) QRCode(c echo.Context) error {
	ctx := c.Request().Context()

	ticket, err := h.svc.GetByToken(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	booking, err := h.bookingSvc.GetBooking(ctx, ticket.BookingID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if booking.BuyerEmail != middleware.BuyerEmail(c) && middleware.Role(c) != middleware.RoleStaff {
		return echo.NewHTTPError(http.StatusForbidden, "not your ticket")
	}

	png, err := qrcode.Encode(ticket.Token, qrcode.Medium, 256)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render qr code")
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
