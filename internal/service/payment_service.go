package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

type paymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, q database.DBTX, id int64) (model.Payment, error)
	MarkSuccess(ctx context.Context, q database.DBTX, id int64) (model.Payment, error)
}

// PaymentService drives the mocked payment provider.
type PaymentService struct {
	*sideEffects
	tx       txRunner
	bookings bookingStore
	payments paymentStore
	now      func() time.Time
}

func NewPaymentService(tx txRunner, bookings bookingStore, payments paymentStore, events EventPublisher) *PaymentService {
	return &PaymentService{
		sideEffects: &sideEffects{events: events},
		tx:          tx,
		bookings:    bookings,
		payments:    payments,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a payment for a pending booking the requester may see.  The
// external id stands in for the provider's reference.
func (s *PaymentService) Create(ctx context.Context, bookingID int64, req model.Requester) (model.Payment, error) {
	bt, err := s.bookings.GetForRequester(ctx, bookingID, req)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Payment{}, ErrBookingNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	if bt.Booking.Status != model.BookingPendingPayments || !bt.Booking.ExpiresAt.After(s.now()) {
		return model.Payment{}, ErrBookingNotPayable
	}

	p := model.Payment{BookingID: bookingID, ExternalID: uuid.NewString()}
	if err := s.payments.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Payment{}, ErrPaymentExists
		}
		return model.Payment{}, err
	}
	return p, nil
}

// Confirm marks the payment SUCCESS and its booking PAID in one
// transaction, booking first.  A booking that is no longer pending or is
// past its deadline rolls everything back with ErrBookingNotPayable, so a
// payment is never SUCCESS for an unpaid booking.  Payments of bookings
// the requester cannot see are ErrPaymentNotFound.
func (s *PaymentService) Confirm(ctx context.Context, paymentID int64, req model.Requester) (model.Payment, error) {
	now := s.now()
	var (
		out  model.Payment
		paid model.Booking
	)
	err := s.tx.RunInTx(ctx, func(q database.DBTX) error {
		p, err := s.payments.GetByID(ctx, q, paymentID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}
		b, err := s.bookings.GetByID(ctx, q, p.BookingID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !req.CanAccess(b.UserID)) {
			return ErrPaymentNotFound
		}
		if err != nil {
			return err
		}

		paid, err = s.bookings.MarkPaid(ctx, q, b.ID, now)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookingNotPayable
		}
		if err != nil {
			return err
		}
		out, err = s.payments.MarkSuccess(ctx, q, p.ID)
		return err
	})
	if err != nil {
		return model.Payment{}, err
	}

	logrus.WithFields(logrus.Fields{"payment_id": paymentID, "booking_id": paid.ID}).Info("payment confirmed")
	s.publish(ctx, model.EventBookingPaid, paid, now)
	return out, nil
}
