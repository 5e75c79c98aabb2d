package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

type bookingService interface {
	Create(ctx context.Context, userID, timeslotID int64) (model.Booking, error)
	Cancel(ctx context.Context, id int64, req model.Requester) (model.Booking, error)
	Get(ctx context.Context, id int64, req model.Requester) (model.BookingWithTimeslot, error)
	List(ctx context.Context, userID int64, f model.BookingFilters) ([]model.BookingWithTimeslot, error)
}

type paymentService interface {
	Create(ctx context.Context, bookingID int64, req model.Requester) (model.Payment, error)
	Confirm(ctx context.Context, paymentID int64, req model.Requester) (model.Payment, error)
}

// BookingHandler serves the authenticated booking and payment endpoints.
type BookingHandler struct {
	Bookings bookingService
	Payments paymentService
}

// NewBookingHandler panics if a dependency is nil.
func NewBookingHandler(b bookingService, p paymentService) *BookingHandler {
	if b == nil || p == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b, Payments: p}
}

type createBookingReq struct {
	TimeslotID int64 `json:"timeslot_id"`
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	var body createBookingReq
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if body.TimeslotID <= 0 {
		return badRequest(c, "timeslot_id required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.Create(ctx, req.UserID, body.TimeslotID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b.Out())
}

// ListBookings handles GET /bookings with the optional filters room_id,
// status, date_from and date_to.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	var (
		f   model.BookingFilters
		err error
	)
	if f.RoomID, err = parseInt64Param(c, "room_id"); err != nil {
		return badRequest(c, err.Error())
	}
	f.Status = model.BookingStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if f.DateFrom, err = parseTimeParam(c, "date_from"); err != nil {
		return badRequest(c, err.Error())
	}
	if f.DateTo, err = parseTimeParam(c, "date_to"); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	out, err := h.Bookings.List(ctx, req.UserID, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GetBooking handles GET /bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	out, err := h.Bookings.Get(ctx, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CancelBooking handles POST /bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if _, err := h.Bookings.Cancel(ctx, id, req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"canceled": true})
}

// CreatePayment handles POST /bookings/:id/payments.
func (h *BookingHandler) CreatePayment(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Payments.Create(ctx, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ConfirmPayment handles POST /payments/:id/confirm.  A booking whose
// deadline passed is reported as 404 and the payment stays CREATED.
func (h *BookingHandler) ConfirmPayment(c echo.Context) error {
	req, ok := middleware.CurrentRequester(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	p, err := h.Payments.Confirm(ctx, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

var (
	_ bookingService = (*service.BookingService)(nil)
	_ paymentService = (*service.PaymentService)(nil)
)
