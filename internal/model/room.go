package model

import "time"

type RoomType string

const (
	RoomMeeting    RoomType = "MEETING_ROOM"
	RoomCoworkDesk RoomType = "COWORK_DESK"
	RoomStudio     RoomType = "STUDIO"
	RoomSport      RoomType = "SPORT"
)

func (t RoomType) Valid() bool {
	switch t {
	case RoomMeeting, RoomCoworkDesk, RoomStudio, RoomSport:
		return true
	}
	return false
}

// TimeSlotType says whether a room's slots follow a fixed grid or are
// cut freely by administrators.
type TimeSlotType string

const (
	TimeSlotFlexible TimeSlotType = "FLEXIBLE"
	TimeSlotFixed    TimeSlotType = "FIXED"
)

func (t TimeSlotType) Valid() bool {
	return t == TimeSlotFlexible || t == TimeSlotFixed
}

// Room belongs to a location and owns timeslots.
type Room struct {
	ID           int64        `json:"id"`             // rooms.id
	LocationID   int64        `json:"location_id"`    // rooms.location_id
	Name         string       `json:"name"`           // rooms.name
	Capacity     int          `json:"capacity"`       // rooms.capacity
	Description  *string      `json:"description"`    // rooms.description (nullable)
	Type         RoomType     `json:"type"`           // rooms.type
	TimeSlotType TimeSlotType `json:"time_slot_type"` // rooms.time_slot_type
	HourPrice    int64        `json:"hour_price"`     // rooms.hour_price_cents
	IsActive     bool         `json:"is_active"`      // rooms.is_active
	CreatedAt    time.Time    `json:"created_at"`     // rooms.created_at
	UpdatedAt    time.Time    `json:"updated_at"`     // rooms.updated_at
}

// RoomFilters narrows the room list; zero values mean no filter.
type RoomFilters struct {
	LocationID int64
	Type       RoomType
	IsActive   *bool
}
