package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

type timeslotLocker interface {
	LockForBooking(ctx context.Context, q database.DBTX, timeslotID int64) (model.TimeslotAvailability, error)
}

type bookingStore interface {
	Create(ctx context.Context, q database.DBTX, b *model.Booking) error
	GetByID(ctx context.Context, q database.DBTX, id int64) (model.Booking, error)
	MarkPaid(ctx context.Context, q database.DBTX, id int64, now time.Time) (model.Booking, error)
	Cancel(ctx context.Context, q database.DBTX, id int64, req model.Requester, now time.Time) (model.Booking, error)
	Expire(ctx context.Context, q database.DBTX, id int64, now time.Time) (model.Booking, error)
	GetForRequester(ctx context.Context, id int64, req model.Requester) (model.BookingWithTimeslot, error)
	ListByUser(ctx context.Context, userID int64, f model.BookingFilters) ([]model.BookingWithTimeslot, error)
}

// BookingService creates, reads and cancels bookings.
type BookingService struct {
	*sideEffects
	tx       txRunner
	slots    timeslotLocker
	bookings bookingStore
	window   time.Duration
	now      func() time.Time
}

// NewBookingService wires the workflow.  cache, scheduler and events are
// optional.
func NewBookingService(tx txRunner, slots timeslotLocker, bookings bookingStore, window time.Duration,
	cache RoomInvalidator, scheduler ExpiryScheduler, events EventPublisher) *BookingService {
	return &BookingService{
		sideEffects: &sideEffects{cache: cache, scheduler: scheduler, events: events},
		tx:          tx,
		slots:       slots,
		bookings:    bookings,
		window:      window,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create books timeslotID for userID.  The timeslot row stays locked from
// the availability check until the insert commits, so of several
// concurrent calls for one slot exactly one succeeds and the rest get
// ErrSlotTaken.
func (s *BookingService) Create(ctx context.Context, userID, timeslotID int64) (model.Booking, error) {
	var b model.Booking
	err := s.tx.RunInTx(ctx, func(q database.DBTX) error {
		slot, err := s.slots.LockForBooking(ctx, q, timeslotID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTimeslotNotFound
		}
		if err != nil {
			return err
		}
		if slot.HasActiveBooking {
			return ErrSlotTaken
		}
		if slot.Status == model.TimeslotBlocked {
			return ErrTimeslotBlocked
		}

		b = model.Booking{
			UserID:     userID,
			RoomID:     slot.RoomID,
			TimeslotID: slot.ID,
			TotalPrice: slot.BasePrice,
			ExpiresAt:  s.now().Add(s.window),
		}
		if err := s.bookings.Create(ctx, q, &b); err != nil {
			// uq_bookings_timeslot_active caught a race the lock did not.
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": b.ID, "user_id": userID, "timeslot_id": timeslotID, "expires_at": b.ExpiresAt,
	}).Info("booking created")
	s.schedule(ctx, b)
	s.invalidate(ctx, b.RoomID)
	s.publish(ctx, model.EventBookingCreated, b, b.CreatedAt)
	return b, nil
}

// Cancel moves a pending booking to CANCELED.  Bookings the requester
// cannot see are ErrBookingNotFound; any other status is a conflict.
func (s *BookingService) Cancel(ctx context.Context, id int64, req model.Requester) (model.Booking, error) {
	now := s.now()
	var b model.Booking
	err := s.tx.RunInTx(ctx, func(q database.DBTX) error {
		var err error
		b, err = s.bookings.Cancel(ctx, q, id, req, now)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Booking{}, err
	}

	logrus.WithFields(logrus.Fields{"booking_id": id, "user_id": req.UserID}).Info("booking canceled")
	s.invalidate(ctx, b.RoomID)
	s.publish(ctx, model.EventBookingCanceled, b, now)
	return b, nil
}

// Get returns a booking with its timeslot if req may see it.
func (s *BookingService) Get(ctx context.Context, id int64, req model.Requester) (model.BookingWithTimeslot, error) {
	out, err := s.bookings.GetForRequester(ctx, id, req)
	if errors.Is(err, repository.ErrNotFound) {
		return model.BookingWithTimeslot{}, ErrBookingNotFound
	}
	return out, err
}

// List returns the user's own bookings.
func (s *BookingService) List(ctx context.Context, userID int64, f model.BookingFilters) ([]model.BookingWithTimeslot, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, repository.ErrInvalid
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, ErrInvalidRange
	}
	return s.bookings.ListByUser(ctx, userID, f)
}
