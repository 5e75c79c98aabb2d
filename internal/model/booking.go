package model

import "time"

// BookingStatus is the state of a booking.  PENDING_PAYMENTS is the only
// non-terminal state; PAID, CANCELED and EXPIRED never change again.
type BookingStatus string

const (
	BookingPendingPayments BookingStatus = "PENDING_PAYMENTS"
	BookingPaid            BookingStatus = "PAID"
	BookingCanceled        BookingStatus = "CANCELED"
	BookingExpired         BookingStatus = "EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPendingPayments, BookingPaid, BookingCanceled, BookingExpired:
		return true
	}
	return false
}

// Active reports whether a booking in this status occupies its timeslot.
func (s BookingStatus) Active() bool {
	return s == BookingPendingPayments || s == BookingPaid
}

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == BookingPaid || s == BookingCanceled || s == BookingExpired
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to BookingStatus) bool {
	return from == BookingPendingPayments && to.Terminal()
}

// Booking records a user's claim on a timeslot.  RoomID is copied from the
// timeslot and TotalPrice from its base price when the booking is created.
//
// Fields:
//
//	ID         – primary key identifier.
//	UserID     – user who made the booking.
//	RoomID     – room of the booked timeslot.
//	TimeslotID – booked timeslot.
//	Status     – lifecycle state.
//	TotalPrice – price in cents, fixed at creation.
//	CreatedAt  – creation timestamp.
//	PaidAt     – set on PENDING_PAYMENTS -> PAID.
//	CanceledAt – set on PENDING_PAYMENTS -> CANCELED.
//	ExpiresAt  – payment deadline; past it the booking may be expired.
type Booking struct {
	ID         int64         `json:"id"`          // bookings.id
	UserID     int64         `json:"user_id"`     // bookings.user_id
	RoomID     int64         `json:"room_id"`     // bookings.room_id
	TimeslotID int64         `json:"timeslot_id"` // bookings.timeslot_id
	Status     BookingStatus `json:"status"`      // bookings.status
	TotalPrice int64         `json:"total_price"` // bookings.total_price_cents
	CreatedAt  time.Time     `json:"created_at"`  // bookings.created_at
	PaidAt     *time.Time    `json:"paid_at"`     // bookings.paid_at (nullable)
	CanceledAt *time.Time    `json:"canceled_at"` // bookings.canceled_at (nullable)
	ExpiresAt  time.Time     `json:"expires_at"`  // bookings.expires_at
}

// BookingOut is the projection returned right after creation.
type BookingOut struct {
	ID         int64         `json:"id"`
	Status     BookingStatus `json:"status"`
	TimeslotID int64         `json:"timeslot_id"`
	TotalPrice int64         `json:"total_price"`
	ExpiresAt  time.Time     `json:"expires_at"`
}

// Out projects b to its post-creation view.
func (b Booking) Out() BookingOut {
	return BookingOut{
		ID:         b.ID,
		Status:     b.Status,
		TimeslotID: b.TimeslotID,
		TotalPrice: b.TotalPrice,
		ExpiresAt:  b.ExpiresAt,
	}
}

// BookingWithTimeslot pairs a booking with the slot it occupies.
type BookingWithTimeslot struct {
	Booking  Booking  `json:"booking"`
	Timeslot Timeslot `json:"timeslot"`
}

// BookingFilters narrows a user's booking list.  Zero values mean no filter;
// DateFrom/DateTo bound the timeslot's start and end.
type BookingFilters struct {
	RoomID   int64
	Status   BookingStatus
	DateFrom *time.Time
	DateTo   *time.Time
}
