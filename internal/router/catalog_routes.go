package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// RegisterCatalog registers location, room and timeslot endpoints.  Reads
// are public and, except for availability, served through the response
// cache.  Writes require an ADMIN token and purge the response cache.
// Availability has its own per-room cache in the timeslot service.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, rc *middleware.ResponseCache) {
	cached := rc.Middleware()
	admin := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireAdmin(),
		rc.PurgeOnWrite(),
	}

	// ---- Locations ----
	e.GET("/locations", h.ListLocations, cached)
	e.GET("/locations/:id", h.GetLocation, cached)
	e.GET("/locations/:id/rooms", h.ListRooms, cached)
	e.POST("/locations", h.CreateLocation, admin...)
	e.PATCH("/locations/:id", h.UpdateLocation, admin...)
	e.DELETE("/locations/:id", h.DeleteLocation, admin...)
	e.POST("/locations/:id/rooms", h.CreateRoom, admin...)

	// ---- Rooms ----
	e.GET("/rooms", h.ListRooms, cached)
	e.GET("/rooms/:id", h.GetRoom, cached)
	e.PATCH("/rooms/:id", h.UpdateRoom, admin...)
	e.DELETE("/rooms/:id", h.DeleteRoom, admin...)

	// ---- Timeslots ----
	e.GET("/rooms/:id/timeslots", h.ListTimeslots)
	e.POST("/rooms/:id/timeslots", h.CreateTimeslot, admin...)
	e.PATCH("/timeslots/:id", h.UpdateTimeslot, admin...)
	e.DELETE("/timeslots/:id", h.DeleteTimeslot, admin...)
}
