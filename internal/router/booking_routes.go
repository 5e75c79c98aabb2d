package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// RegisterBookings registers the booking and payment endpoints.  Every
// route requires a valid JWT; ownership is enforced by the services, with
// admins seeing every booking.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	b := e.Group("/bookings", middleware.JWTAuth(jwtSecret))
	b.POST("", h.CreateBooking)
	b.GET("", h.ListBookings)
	b.GET("/:id", h.GetBooking)
	b.POST("/:id/cancel", h.CancelBooking)
	b.POST("/:id/payments", h.CreatePayment)

	p := e.Group("/payments", middleware.JWTAuth(jwtSecret))
	p.POST("/:id/confirm", h.ConfirmPayment)
}
