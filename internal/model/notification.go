package model

import "time"

// BookingEventType names the lifecycle step a notification is about.
type BookingEventType string

const (
	EventBookingCreated  BookingEventType = "BOOKING_CREATED"
	EventBookingPaid     BookingEventType = "BOOKING_PAID"
	EventBookingCanceled BookingEventType = "BOOKING_CANCELED"
	EventBookingExpired  BookingEventType = "BOOKING_EXPIRED"
)

// BookingEvent is published on the events queue after a booking changes
// state.  It carries enough for the notifier to write its log row without
// re-reading the booking.
type BookingEvent struct {
	Type       BookingEventType `json:"type"`
	BookingID  int64            `json:"booking_id"`
	UserID     int64            `json:"user_id"`
	RoomID     int64            `json:"room_id"`
	TimeslotID int64            `json:"timeslot_id"`
	Status     BookingStatus    `json:"status"`
	TotalPrice int64            `json:"total_price"`
	ExpiresAt  time.Time        `json:"expires_at"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventFromBooking builds the event for b.
func EventFromBooking(t BookingEventType, b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		UserID:     b.UserID,
		RoomID:     b.RoomID,
		TimeslotID: b.TimeslotID,
		Status:     b.Status,
		TotalPrice: b.TotalPrice,
		ExpiresAt:  b.ExpiresAt,
		OccurredAt: at,
	}
}

// ExpireBookingTask is the deferred expiry message body.
type ExpireBookingTask struct {
	BookingID int64     `json:"booking_id"`
	RunAt     time.Time `json:"run_at"`
}

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "QUEUED"
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// NotificationLog records one delivery attempt for a booking event.
type NotificationLog struct {
	ID        int64              // notification_logs.id
	UserID    int64              // notification_logs.user_id
	BookingID *int64             // notification_logs.booking_id (nullable)
	Type      BookingEventType   // notification_logs.type
	Status    NotificationStatus // notification_logs.status
	Payload   []byte             // notification_logs.payload (jsonb)
	Error     *string            // notification_logs.error
	CreatedAt time.Time          // notification_logs.created_at
}
