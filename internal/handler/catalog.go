package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

type locationStore interface {
	Create(ctx context.Context, l *model.Location) error
	GetByID(ctx context.Context, id int64) (model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
	Update(ctx context.Context, id int64, p repository.LocationPatch) (model.Location, error)
	Delete(ctx context.Context, id int64) error
}

type roomStore interface {
	Create(ctx context.Context, rm *model.Room) error
	GetByID(ctx context.Context, id int64) (model.Room, error)
	List(ctx context.Context, f model.RoomFilters) ([]model.Room, error)
	Update(ctx context.Context, id int64, p repository.RoomPatch) (model.Room, error)
	Delete(ctx context.Context, id int64) error
}

type timeslotService interface {
	ListByRoom(ctx context.Context, roomID int64, from, to time.Time) ([]model.TimeslotAvailability, error)
	Create(ctx context.Context, t *model.Timeslot) error
	Update(ctx context.Context, id int64, p repository.TimeslotPatch) (model.Timeslot, error)
	Delete(ctx context.Context, id int64) error
}

// CatalogHandler serves locations, rooms and timeslots.  Reads are public;
// writes are mounted behind RequireAdmin by the router.
type CatalogHandler struct {
	Locations locationStore
	Rooms     roomStore
	Timeslots timeslotService
}

// NewCatalogHandler panics if a dependency is nil.
func NewCatalogHandler(l locationStore, r roomStore, t timeslotService) *CatalogHandler {
	if l == nil || r == nil || t == nil {
		panic("nil dependency passed to NewCatalogHandler")
	}
	return &CatalogHandler{Locations: l, Rooms: r, Timeslots: t}
}

// ----- locations -----

type locationReq struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
}

func (h *CatalogHandler) ListLocations(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Locations.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetLocation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	l, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *CatalogHandler) CreateLocation(c echo.Context) error {
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if blank(req.Name) || blank(req.Address) {
		return badRequest(c, "name and address required")
	}
	l := model.Location{Name: strings.TrimSpace(*req.Name), Address: strings.TrimSpace(*req.Address), Description: req.Description}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Locations.Create(ctx, &l); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *CatalogHandler) UpdateLocation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if (req.Name != nil && blank(req.Name)) || (req.Address != nil && blank(req.Address)) {
		return badRequest(c, "name and address must not be empty")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	l, err := h.Locations.Update(ctx, id, repository.LocationPatch{Name: req.Name, Address: req.Address, Description: req.Description})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// DeleteLocation answers 409 while rooms still belong to the location.
func (h *CatalogHandler) DeleteLocation(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Locations.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- rooms -----

type roomReq struct {
	Name         *string             `json:"name"`
	Capacity     *int                `json:"capacity"`
	Description  *string             `json:"description"`
	Type         *model.RoomType     `json:"type"`
	TimeSlotType *model.TimeSlotType `json:"time_slot_type"`
	HourPrice    *int64              `json:"hour_price"`
	IsActive     *bool               `json:"is_active"`
}

// validate checks the fields that are present.
func (r roomReq) validate() string {
	switch {
	case r.Name != nil && blank(r.Name):
		return "name must not be empty"
	case r.Capacity != nil && *r.Capacity <= 0:
		return "capacity must be positive"
	case r.Type != nil && !r.Type.Valid():
		return "unknown room type"
	case r.TimeSlotType != nil && !r.TimeSlotType.Valid():
		return "unknown time_slot_type"
	case r.HourPrice != nil && *r.HourPrice < 0:
		return "hour_price must not be negative"
	}
	return ""
}

// ListRooms handles GET /rooms and GET /locations/:id/rooms.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	var f model.RoomFilters
	if c.Param("id") != "" {
		id, err := parseID(c, "id")
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.LocationID = id
	} else {
		id, err := parseInt64Param(c, "location_id")
		if err != nil {
			return badRequest(c, err.Error())
		}
		f.LocationID = id
	}
	if t := strings.ToUpper(strings.TrimSpace(c.QueryParam("type"))); t != "" {
		f.Type = model.RoomType(t)
		if !f.Type.Valid() {
			return badRequest(c, "unknown room type")
		}
	}
	if raw := strings.TrimSpace(c.QueryParam("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "is_active must be true or false")
		}
		f.IsActive = &active
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Rooms.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	rm, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// CreateRoom handles POST /locations/:id/rooms.
func (h *CatalogHandler) CreateRoom(c echo.Context) error {
	locationID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Name == nil || req.Capacity == nil || req.Type == nil {
		return badRequest(c, "name, capacity and type required")
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}
	rm := model.Room{
		LocationID:   locationID,
		Name:         strings.TrimSpace(*req.Name),
		Capacity:     *req.Capacity,
		Description:  req.Description,
		Type:         *req.Type,
		TimeSlotType: model.TimeSlotFixed,
		IsActive:     true,
	}
	if req.TimeSlotType != nil {
		rm.TimeSlotType = *req.TimeSlotType
	}
	if req.HourPrice != nil {
		rm.HourPrice = *req.HourPrice
	}
	if req.IsActive != nil {
		rm.IsActive = *req.IsActive
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Rooms.Create(ctx, &rm); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, rm)
}

func (h *CatalogHandler) UpdateRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	rm, err := h.Rooms.Update(ctx, id, repository.RoomPatch{
		Name:         req.Name,
		Capacity:     req.Capacity,
		Description:  req.Description,
		Type:         req.Type,
		TimeSlotType: req.TimeSlotType,
		HourPrice:    req.HourPrice,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

func (h *CatalogHandler) DeleteRoom(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Rooms.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- timeslots -----

type timeslotReq struct {
	Start     *time.Time            `json:"start_datetime"`
	End       *time.Time            `json:"end_datetime"`
	BasePrice *int64                `json:"base_price"`
	Status    *model.TimeslotStatus `json:"status"`
}

// ListTimeslots handles GET /rooms/:id/timeslots?date_from&date_to.  Both
// bounds are required.
func (h *CatalogHandler) ListTimeslots(c echo.Context) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	from, err := parseTimeParam(c, "date_from")
	if err != nil {
		return badRequest(c, err.Error())
	}
	to, err := parseTimeParam(c, "date_to")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if from == nil || to == nil {
		return badRequest(c, "date_from and date_to required")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Timeslots.ListByRoom(ctx, roomID, *from, *to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateTimeslot handles POST /rooms/:id/timeslots.
func (h *CatalogHandler) CreateTimeslot(c echo.Context) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req timeslotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Start == nil || req.End == nil || req.BasePrice == nil {
		return badRequest(c, "start_datetime, end_datetime and base_price required")
	}
	t := model.Timeslot{RoomID: roomID, Start: *req.Start, End: *req.End, BasePrice: *req.BasePrice}
	if req.Status != nil {
		t.Status = *req.Status
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Timeslots.Create(ctx, &t); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *CatalogHandler) UpdateTimeslot(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req timeslotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Timeslots.Update(ctx, id, repository.TimeslotPatch{
		Start:     req.Start,
		End:       req.End,
		BasePrice: req.BasePrice,
		Status:    req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTimeslot answers 409 while bookings reference the slot.
func (h *CatalogHandler) DeleteTimeslot(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Timeslots.Delete(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }
