package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
)

// Reclaimer result statuses.
const (
	ResultExpired   = "expired"
	ResultSkipped   = "skipped_not_pending_or_not_expired"
	ResultNoBackend = "skipped_no_backend"
	ResultError     = "error"
)

// ExpireResult reports one reclaim attempt.
type ExpireResult struct {
	BookingID     int64               `json:"booking_id"`
	Status        string              `json:"status"`
	BookingStatus model.BookingStatus `json:"booking_status,omitempty"`
	Error         string              `json:"error,omitempty"`
}

type bookingExpirer interface {
	Expire(ctx context.Context, q database.DBTX, id int64, now time.Time) (model.Booking, error)
}

// Reclaimer expires overdue pending bookings so their timeslots become
// bookable again.  Expire is idempotent: it only acts on a booking that is
// still PENDING_PAYMENTS with its deadline passed, so duplicate, late or
// concurrent invocations are harmless.
type Reclaimer struct {
	*sideEffects
	tx       txRunner
	bookings bookingExpirer
	now      func() time.Time
}

func NewReclaimer(tx txRunner, bookings bookingExpirer, cache RoomInvalidator, events EventPublisher) *Reclaimer {
	return &Reclaimer{
		sideEffects: &sideEffects{cache: cache, events: events},
		tx:          tx,
		bookings:    bookings,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Expire attempts PENDING_PAYMENTS -> EXPIRED for bookingID.
func (r *Reclaimer) Expire(ctx context.Context, bookingID int64) ExpireResult {
	res := ExpireResult{BookingID: bookingID}
	if r.tx == nil || r.bookings == nil {
		res.Status = ResultNoBackend
		return res
	}

	now := r.now()
	var b model.Booking
	err := r.tx.RunInTx(ctx, func(q database.DBTX) error {
		var err error
		b, err = r.bookings.Expire(ctx, q, bookingID, now)
		return err
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		res.Status = ResultSkipped
		return res
	case err != nil:
		logrus.WithError(err).WithField("booking_id", bookingID).Error("expire booking failed")
		res.Status = ResultError
		res.Error = err.Error()
		return res
	}

	logrus.WithFields(logrus.Fields{"booking_id": bookingID, "room_id": b.RoomID}).Info("booking expired")
	r.invalidate(ctx, b.RoomID)
	r.publish(ctx, model.EventBookingExpired, b, now)
	res.Status = ResultExpired
	res.BookingStatus = b.Status
	return res
}

// HandleExpireMessage is the expire queue handler.  Only a storage failure
// is returned as an error; skipped tasks are acknowledged.
func (r *Reclaimer) HandleExpireMessage(ctx context.Context, body []byte) error {
	task, err := queue.DecodeExpireTask(body)
	if err != nil {
		return err
	}
	res := r.Expire(ctx, task.BookingID)
	logrus.WithFields(logrus.Fields{"booking_id": task.BookingID, "result": res.Status}).Debug("expire task handled")
	if res.Status == ResultError {
		return errors.New(res.Error)
	}
	return nil
}
