// Package queue carries booking messages over RabbitMQ: deferred expiry
// tasks that dead-letter into the expire queue once their TTL runs out, and
// booking lifecycle events for the notifier.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/room-booking/internal/model"
)

// DecodeExpireTask parses an expire queue message.
func DecodeExpireTask(body []byte) (model.ExpireBookingTask, error) {
	var t model.ExpireBookingTask
	if err := json.Unmarshal(body, &t); err != nil {
		return t, fmt.Errorf("unmarshal expire task: %w", err)
	}
	if t.BookingID <= 0 {
		return t, fmt.Errorf("expire task without booking_id")
	}
	return t, nil
}

// DecodeBookingEvent parses an events queue message.
func DecodeBookingEvent(body []byte) (model.BookingEvent, error) {
	var ev model.BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal booking event: %w", err)
	}
	if ev.BookingID <= 0 || ev.Type == "" {
		return ev, fmt.Errorf("booking event missing booking_id or type")
	}
	return ev, nil
}
