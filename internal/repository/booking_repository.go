package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
)

// BookingRepo persists bookings and implements the state machine as
// conditional updates: every transition names its source status in the
// WHERE clause, so a transition that lost a race affects zero rows.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `b.id, b.user_id, b.room_id, b.timeslot_id, b.status, b.total_price_cents,
	b.created_at, b.paid_at, b.canceled_at, b.expires_at`

func bookingDest(b *model.Booking) []any {
	return []any{&b.ID, &b.UserID, &b.RoomID, &b.TimeslotID, &b.Status, &b.TotalPrice,
		&b.CreatedAt, &b.PaidAt, &b.CanceledAt, &b.ExpiresAt}
}

func scanBooking(row interface{ Scan(...any) error }, b *model.Booking) error {
	return row.Scan(bookingDest(b)...)
}

// Create inserts b in PENDING_PAYMENTS within q's transaction and fills in
// ID and CreatedAt.  A second active booking for the same timeslot violates
// uq_bookings_timeslot_active and comes back as ErrDuplicate; a user or
// timeslot deleted meanwhile violates a foreign key and is ErrNotFound.
func (r *BookingRepo) Create(ctx context.Context, q database.DBTX, b *model.Booking) error {
	const query = `INSERT INTO bookings (user_id, room_id, timeslot_id, status, total_price_cents, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	b.Status = model.BookingPendingPayments
	err := q.QueryRowContext(ctx, query, b.UserID, b.RoomID, b.TimeslotID, b.Status, b.TotalPrice, b.ExpiresAt).
		Scan(&b.ID, &b.CreatedAt)
	if isFKViolation(err) {
		return ErrNotFound
	}
	return mapPQError(err)
}

// GetByID reads a booking through q so it can join the caller's transaction.
func (r *BookingRepo) GetByID(ctx context.Context, q database.DBTX, id int64) (model.Booking, error) {
	var b model.Booking
	err := scanBooking(q.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings b WHERE b.id = $1`, id), &b)
	if err != nil {
		return model.Booking{}, mapPQError(err)
	}
	return b, nil
}

// MarkPaid moves a booking PENDING_PAYMENTS -> PAID if its deadline is
// still ahead of now.  Any other state, or a passed deadline, yields
// ErrNotFound.
func (r *BookingRepo) MarkPaid(ctx context.Context, q database.DBTX, id int64, now time.Time) (model.Booking, error) {
	const query = `UPDATE bookings b SET status = 'PAID', paid_at = $2
		WHERE b.id = $1 AND b.status = 'PENDING_PAYMENTS' AND b.expires_at > $2
		RETURNING ` + bookingCols
	var b model.Booking
	if err := scanBooking(q.QueryRowContext(ctx, query, id, now), &b); err != nil {
		return model.Booking{}, mapPQError(err)
	}
	return b, nil
}

// Cancel moves a booking PENDING_PAYMENTS -> CANCELED.  Non-admin callers
// only match their own bookings.  When nothing is updated it tells the
// two failure cases apart: a missing or foreign booking is ErrNotFound, a
// visible booking in any other status is ErrConflict.
func (r *BookingRepo) Cancel(ctx context.Context, q database.DBTX, id int64, req model.Requester, now time.Time) (model.Booking, error) {
	const query = `UPDATE bookings b SET status = 'CANCELED', canceled_at = $2
		WHERE b.id = $1 AND b.status = 'PENDING_PAYMENTS' AND ($3 OR b.user_id = $4)
		RETURNING ` + bookingCols
	var b model.Booking
	err := scanBooking(q.QueryRowContext(ctx, query, id, now, req.IsAdmin, req.UserID), &b)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, err
	}

	var (
		ownerID int64
		status  model.BookingStatus
	)
	err = q.QueryRowContext(ctx, `SELECT user_id, status FROM bookings WHERE id = $1`, id).Scan(&ownerID, &status)
	if err != nil {
		return model.Booking{}, mapPQError(err)
	}
	if !req.CanAccess(ownerID) {
		return model.Booking{}, ErrNotFound
	}
	return model.Booking{}, fmt.Errorf("%w: booking is %s", ErrConflict, status)
}

// Expire moves a booking PENDING_PAYMENTS -> EXPIRED iff its deadline is at
// or before now.  Zero rows (already terminal or not yet due) is
// ErrNotFound, which the reclaimer reports as skipped.
func (r *BookingRepo) Expire(ctx context.Context, q database.DBTX, id int64, now time.Time) (model.Booking, error) {
	const query = `UPDATE bookings b SET status = 'EXPIRED'
		WHERE b.id = $1 AND b.status = 'PENDING_PAYMENTS' AND b.expires_at <= $2
		RETURNING ` + bookingCols
	var b model.Booking
	if err := scanBooking(q.QueryRowContext(ctx, query, id, now), &b); err != nil {
		return model.Booking{}, mapPQError(err)
	}
	return b, nil
}

// ListExpiredPending returns ids of pending bookings whose deadline has
// passed, oldest first.  The sweeper feeds them to the reclaimer.
func (r *BookingRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM bookings WHERE status = 'PENDING_PAYMENTS' AND expires_at <= $1 ORDER BY expires_at LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const bookingWithSlotSelect = `SELECT ` + bookingCols + `, ` + timeslotCols + `
	FROM bookings b
	JOIN timeslots t ON t.id = b.timeslot_id`

func scanBookingWithSlot(row interface{ Scan(...any) error }) (model.BookingWithTimeslot, error) {
	var out model.BookingWithTimeslot
	t := &out.Timeslot
	dest := append(bookingDest(&out.Booking), &t.ID, &t.RoomID, &t.Start, &t.End, &t.BasePrice, &t.Status)
	err := row.Scan(dest...)
	return out, err
}

// GetForRequester returns the booking with its timeslot if the requester
// owns it or is an admin; otherwise ErrNotFound.
func (r *BookingRepo) GetForRequester(ctx context.Context, id int64, req model.Requester) (model.BookingWithTimeslot, error) {
	out, err := scanBookingWithSlot(r.db.QueryRowContext(ctx, bookingWithSlotSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return model.BookingWithTimeslot{}, mapPQError(err)
	}
	if !req.CanAccess(out.Booking.UserID) {
		return model.BookingWithTimeslot{}, ErrNotFound
	}
	return out, nil
}

// ListByUser returns the user's bookings joined with their timeslots,
// ordered by creation time, narrowed by f.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64, f model.BookingFilters) ([]model.BookingWithTimeslot, error) {
	where := []string{"b.user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.RoomID > 0 {
		add("b.room_id = ?", f.RoomID)
	}
	if f.Status != "" {
		add("b.status = ?", f.Status)
	}
	if f.DateFrom != nil {
		add("t.start_datetime >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("t.end_datetime <= ?", *f.DateTo)
	}

	query := bookingWithSlotSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY b.created_at, b.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.BookingWithTimeslot, 0)
	for rows.Next() {
		bt, err := scanBookingWithSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}
