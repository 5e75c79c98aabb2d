package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

func newPendingBooking(t *testing.T, e *env) model.Booking {
	t.Helper()
	slot := e.db.addSlot(3, 4200, model.TimeslotAvailable)
	b, err := e.bookings.Create(context.Background(), userA.UserID, slot.ID)
	require.NoError(t, err)
	return b
}

func TestPaymentService_CreateAndConfirm(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	b := newPendingBooking(t, e)

	p, err := e.payments.Create(ctx, b.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCreated, p.Status)
	assert.Equal(t, b.ID, p.BookingID)
	_, err = uuid.Parse(p.ExternalID)
	assert.NoError(t, err)

	_, err = e.payments.Create(ctx, b.ID, userA)
	assert.ErrorIs(t, err, ErrPaymentExists)

	confirmed, err := e.payments.Confirm(ctx, p.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSuccess, confirmed.Status)

	paid := e.db.booking(b.ID)
	assert.Equal(t, model.BookingPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	e.wait()
	assert.Contains(t, e.rec.eventTypes(), model.EventBookingPaid)
}

func TestPaymentService_OwnershipIsolation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	b := newPendingBooking(t, e)

	_, err := e.payments.Create(ctx, b.ID, userB)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	p, err := e.payments.Create(ctx, b.ID, userA)
	require.NoError(t, err)

	_, err = e.payments.Confirm(ctx, p.ID, userB)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.Equal(t, model.PaymentCreated, e.db.payment(p.ID).Status)
	assert.Equal(t, model.BookingPendingPayments, e.db.booking(b.ID).Status)

	_, err = e.payments.Confirm(ctx, p.ID, admin)
	require.NoError(t, err)
	e.wait()
}

func TestPaymentService_ConfirmUnknown(t *testing.T) {
	e := newEnv()
	_, err := e.payments.Confirm(context.Background(), 777, userA)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPaymentService_ConfirmAfterDeadline(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	b := newPendingBooking(t, e)
	p, err := e.payments.Create(ctx, b.ID, userA)
	require.NoError(t, err)

	e.clk.Advance(testWindow + time.Second)

	_, err = e.payments.Confirm(ctx, p.ID, userA)
	assert.ErrorIs(t, err, ErrBookingNotPayable)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, model.BookingPendingPayments, e.db.booking(b.ID).Status)
	assert.Equal(t, model.PaymentCreated, e.db.payment(p.ID).Status)

	_, err = e.payments.Create(ctx, b.ID, userA)
	assert.ErrorIs(t, err, ErrBookingNotPayable)
	e.wait()
}

func TestPaymentService_CreateForCanceledBooking(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	b := newPendingBooking(t, e)
	_, err := e.bookings.Cancel(ctx, b.ID, userA)
	require.NoError(t, err)

	_, err = e.payments.Create(ctx, b.ID, userA)
	assert.ErrorIs(t, err, ErrBookingNotPayable)
	e.wait()
}
