package handler

import (
	"errors"
	"net/http"

	"github.com/gatherhub/ticketing/internal/dto"
	"github.com/gatherhub/ticketing/internal/middleware"
	"github.com/gatherhub/ticketing/internal/models"
	"github.com/gatherhub/ticketing/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/events/:id/bookings", h.CreateBooking)
	g.GET("/events/:id/bookings", h.ListBookings, middleware.RequireStaff())
	g.GET("/bookings/:id", h.GetBooking)
	g.DELETE("/bookings/:id", h.CancelBooking)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	buyer := middleware.BuyerEmail(c)
	if buyer == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing buyer identity")
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), c.Param("id"), buyer, req.Quantity, req.Team.ToRoster())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidTeam),
			errors.Is(err, service.ErrInvalidMember),
			errors.Is(err, service.ErrInvalidLeader):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCapacityExceeded):
			return echo.NewHTTPError(http.StatusConflict, "sold out")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	booking, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Scoped to the owning buyer or staff.
	if booking.BuyerEmail != middleware.BuyerEmail(c) && middleware.Role(c) != middleware.RoleStaff {
		return echo.NewHTTPError(http.StatusForbidden, "not your booking")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	ctx := c.Request().Context()

	booking, err := h.svc.GetBooking(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if booking.BuyerEmail != middleware.BuyerEmail(c) && middleware.Role(c) != middleware.RoleStaff {
		return echo.NewHTTPError(http.StatusForbidden, "not your booking")
	}

	booking, err = h.svc.CancelBooking(ctx, booking.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	var state *models.BookingState
	if s := c.QueryParam("state"); s != "" {
		bs := models.BookingState(s)
		state = &bs
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), c.Param("id"), state)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}

	return c.JSON(http.StatusOK, resp)
}
