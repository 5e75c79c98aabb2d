package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
)

type txRunner interface {
	RunInTx(ctx context.Context, fn func(q database.DBTX) error) error
}

// ExpiryScheduler arranges a deferred Reclaimer run for a booking.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, bookingID int64, runAt time.Time) error
}

// EventPublisher delivers booking lifecycle events to the notifier.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev model.BookingEvent) error
}

// RoomInvalidator drops cached availability listings of a room.
type RoomInvalidator interface {
	InvalidateRoom(ctx context.Context, roomID int64)
}

// publishTimeout bounds a detached scheduler or publisher call.
const publishTimeout = 5 * time.Second

// sideEffects runs the best-effort steps that follow a committed booking
// change.  Cache invalidation is synchronous; scheduling and event
// publishing run in the background and only ever log their failures.
// Any of the sinks may be nil.
type sideEffects struct {
	cache     RoomInvalidator
	scheduler ExpiryScheduler
	events    EventPublisher
	wg        sync.WaitGroup
}

func (s *sideEffects) invalidate(ctx context.Context, roomID int64) {
	if s.cache != nil {
		s.cache.InvalidateRoom(ctx, roomID)
	}
}

func (s *sideEffects) schedule(ctx context.Context, b model.Booking) {
	if s.scheduler == nil {
		return
	}
	s.background(ctx, func(ctx context.Context) {
		if err := s.scheduler.ScheduleExpiry(ctx, b.ID, b.ExpiresAt); err != nil {
			logrus.WithError(err).WithField("booking_id", b.ID).Warn("schedule expiry failed")
		}
	})
}

func (s *sideEffects) publish(ctx context.Context, t model.BookingEventType, b model.Booking, at time.Time) {
	if s.events == nil {
		return
	}
	ev := model.EventFromBooking(t, b, at)
	s.background(ctx, func(ctx context.Context) {
		if err := s.events.PublishBookingEvent(ctx, ev); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "event": t}).Warn("publish booking event failed")
		}
	})
}

// background detaches fn from the request so a client disconnect does not
// cut it short.
func (s *sideEffects) background(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every background side effect has finished.
func (s *sideEffects) Wait() { s.wg.Wait() }
