package model

import "time"

// TimeslotStatus marks whether a slot may be booked at all.
type TimeslotStatus string

const (
	TimeslotAvailable TimeslotStatus = "AVAILABLE"
	TimeslotBlocked   TimeslotStatus = "BLOCKED"
)

func (s TimeslotStatus) Valid() bool {
	return s == TimeslotAvailable || s == TimeslotBlocked
}

// Timeslot is a bookable interval of a room.  Slots of the same room never
// overlap and Start is always before End.
type Timeslot struct {
	ID        int64          `json:"id"`             // timeslots.id
	RoomID    int64          `json:"room_id"`        // timeslots.room_id
	Start     time.Time      `json:"start_datetime"` // timeslots.start_datetime
	End       time.Time      `json:"end_datetime"`   // timeslots.end_datetime
	BasePrice int64          `json:"base_price"`     // timeslots.base_price_cents
	Status    TimeslotStatus `json:"status"`         // timeslots.status
}

// TimeslotAvailability is a timeslot plus whether a PENDING_PAYMENTS or
// PAID booking currently holds it.
type TimeslotAvailability struct {
	Timeslot
	HasActiveBooking bool `json:"has_active_booking"`
}
