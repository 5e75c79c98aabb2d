package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

// memDB stands in for Postgres.  txMu serializes transactions, which is
// stricter than the per-row lock but gives the same guarantee for a single
// timeslot; a failed transaction restores the snapshot taken at its start.
type memDB struct {
	txMu sync.Mutex

	mu       sync.Mutex
	slots    map[int64]model.Timeslot
	bookings map[int64]model.Booking
	payments map[int64]model.Payment
	seq      int64
	failTx   error
}

func newMemDB() *memDB {
	return &memDB{
		slots:    map[int64]model.Timeslot{},
		bookings: map[int64]model.Booking{},
		payments: map[int64]model.Payment{},
	}
}

func (db *memDB) nextID() int64 {
	db.seq++
	return db.seq
}

func (db *memDB) addSlot(roomID, price int64, status model.TimeslotStatus) model.Timeslot {
	db.mu.Lock()
	defer db.mu.Unlock()
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	t := model.Timeslot{ID: db.nextID(), RoomID: roomID, Start: start, End: start.Add(time.Hour), BasePrice: price, Status: status}
	db.slots[t.ID] = t
	return t
}

func (db *memDB) booking(id int64) model.Booking {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.bookings[id]
}

func (db *memDB) payment(id int64) model.Payment {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.payments[id]
}

func (db *memDB) activeCount(timeslotID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, b := range db.bookings {
		if b.TimeslotID == timeslotID && b.Status.Active() {
			n++
		}
	}
	return n
}

func (db *memDB) RunInTx(ctx context.Context, fn func(q database.DBTX) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	if db.failTx != nil {
		return db.failTx
	}

	db.mu.Lock()
	bookings := make(map[int64]model.Booking, len(db.bookings))
	for k, v := range db.bookings {
		bookings[k] = v
	}
	payments := make(map[int64]model.Payment, len(db.payments))
	for k, v := range db.payments {
		payments[k] = v
	}
	db.mu.Unlock()

	if err := fn(nil); err != nil {
		db.mu.Lock()
		db.bookings, db.payments = bookings, payments
		db.mu.Unlock()
		return err
	}
	return nil
}

type memSlots struct{ db *memDB }

func (s memSlots) LockForBooking(_ context.Context, _ database.DBTX, id int64) (model.TimeslotAvailability, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.slots[id]
	if !ok {
		return model.TimeslotAvailability{}, repository.ErrNotFound
	}
	out := model.TimeslotAvailability{Timeslot: t}
	for _, b := range s.db.bookings {
		if b.TimeslotID == id && b.Status.Active() {
			out.HasActiveBooking = true
		}
	}
	return out, nil
}

// blindSlots never reports an active booking, leaving the unique index
// emulated by memBookings.Create as the only guard.
type blindSlots struct{ memSlots }

func (s blindSlots) LockForBooking(ctx context.Context, q database.DBTX, id int64) (model.TimeslotAvailability, error) {
	out, err := s.memSlots.LockForBooking(ctx, q, id)
	out.HasActiveBooking = false
	return out, err
}

type memBookings struct{ db *memDB }

func (r memBookings) Create(_ context.Context, _ database.DBTX, b *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.bookings {
		if other.TimeslotID == b.TimeslotID && other.Status.Active() {
			return fmt.Errorf("%w: uq_bookings_timeslot_active", repository.ErrDuplicate)
		}
	}
	b.ID = r.db.nextID()
	b.Status = model.BookingPendingPayments
	b.CreatedAt = time.Now().UTC()
	r.db.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(_ context.Context, _ database.DBTX, id int64) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (r memBookings) MarkPaid(_ context.Context, _ database.DBTX, id int64, now time.Time) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || b.Status != model.BookingPendingPayments || !b.ExpiresAt.After(now) {
		return model.Booking{}, repository.ErrNotFound
	}
	b.Status, b.PaidAt = model.BookingPaid, &now
	r.db.bookings[id] = b
	return b, nil
}

func (r memBookings) Cancel(_ context.Context, _ database.DBTX, id int64, req model.Requester, now time.Time) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || !req.CanAccess(b.UserID) {
		return model.Booking{}, repository.ErrNotFound
	}
	if b.Status != model.BookingPendingPayments {
		return model.Booking{}, fmt.Errorf("%w: booking is %s", repository.ErrConflict, b.Status)
	}
	b.Status, b.CanceledAt = model.BookingCanceled, &now
	r.db.bookings[id] = b
	return b, nil
}

func (r memBookings) Expire(_ context.Context, _ database.DBTX, id int64, now time.Time) (model.Booking, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || b.Status != model.BookingPendingPayments || b.ExpiresAt.After(now) {
		return model.Booking{}, repository.ErrNotFound
	}
	b.Status = model.BookingExpired
	r.db.bookings[id] = b
	return b, nil
}

func (r memBookings) GetForRequester(_ context.Context, id int64, req model.Requester) (model.BookingWithTimeslot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.bookings[id]
	if !ok || !req.CanAccess(b.UserID) {
		return model.BookingWithTimeslot{}, repository.ErrNotFound
	}
	return model.BookingWithTimeslot{Booking: b, Timeslot: r.db.slots[b.TimeslotID]}, nil
}

func (r memBookings) ListByUser(_ context.Context, userID int64, f model.BookingFilters) ([]model.BookingWithTimeslot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.BookingWithTimeslot, 0)
	for _, b := range r.db.bookings {
		if b.UserID != userID || (f.Status != "" && b.Status != f.Status) || (f.RoomID > 0 && b.RoomID != f.RoomID) {
			continue
		}
		out = append(out, model.BookingWithTimeslot{Booking: b, Timeslot: r.db.slots[b.TimeslotID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Booking.ID < out[j].Booking.ID })
	return out, nil
}

type memPayments struct{ db *memDB }

func (r memPayments) Create(_ context.Context, p *model.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.payments {
		if other.BookingID == p.BookingID {
			return fmt.Errorf("%w: payments_booking_id_key", repository.ErrDuplicate)
		}
	}
	p.ID = r.db.nextID()
	p.Status = model.PaymentCreated
	r.db.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(_ context.Context, _ database.DBTX, id int64) (model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok {
		return model.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (r memPayments) MarkSuccess(_ context.Context, _ database.DBTX, id int64) (model.Payment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok {
		return model.Payment{}, repository.ErrNotFound
	}
	p.Status = model.PaymentSuccess
	r.db.payments[id] = p
	return p, nil
}

// recorder collects side effects.
type recorder struct {
	mu          sync.Mutex
	invalidated []int64
	scheduled   map[int64]time.Time
	events      []model.BookingEvent
	scheduleErr error
}

func newRecorder() *recorder { return &recorder{scheduled: map[int64]time.Time{}} }

func (r *recorder) InvalidateRoom(_ context.Context, roomID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, roomID)
}

func (r *recorder) ScheduleExpiry(_ context.Context, bookingID int64, runAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduleErr != nil {
		return r.scheduleErr
	}
	r.scheduled[bookingID] = runAt
	return nil
}

func (r *recorder) PublishBookingEvent(_ context.Context, ev model.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) eventTypes() []model.BookingEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.BookingEventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) invalidations() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.invalidated...)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Now().UTC().Truncate(time.Second)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errStorage = errors.New("connection reset")

// env bundles the services over one memDB.
type env struct {
	db        *memDB
	rec       *recorder
	clk       *clock
	bookings  *BookingService
	payments  *PaymentService
	reclaimer *Reclaimer
}

const testWindow = 15 * time.Minute

func newEnv() *env {
	db := newMemDB()
	rec := newRecorder()
	clk := newClock()
	e := &env{
		db:        db,
		rec:       rec,
		clk:       clk,
		bookings:  NewBookingService(db, memSlots{db}, memBookings{db}, testWindow, rec, rec, rec),
		payments:  NewPaymentService(db, memBookings{db}, memPayments{db}, rec),
		reclaimer: NewReclaimer(db, memBookings{db}, rec, rec),
	}
	e.bookings.now = clk.Now
	e.payments.now = clk.Now
	e.reclaimer.now = clk.Now
	return e
}

func (e *env) wait() {
	e.bookings.Wait()
	e.payments.Wait()
	e.reclaimer.Wait()
}
