package model

import "time"

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "CREATED"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment is the mocked provider's record for a booking.  There is at most
// one payment per booking.
type Payment struct {
	ID         int64         `json:"id"`          // payments.id
	BookingID  int64         `json:"booking_id"`  // payments.booking_id (unique)
	ExternalID string        `json:"external_id"` // payments.external_id
	Status     PaymentStatus `json:"status"`      // payments.status
	CreatedAt  time.Time     `json:"-"`           // payments.created_at
	UpdatedAt  time.Time     `json:"-"`           // payments.updated_at
}
