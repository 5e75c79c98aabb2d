package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/repository"
)

var lockColumns = []string{"id", "room_id", "start_datetime", "end_datetime", "base_price_cents", "status", "has_active_booking"}

// newSQLBookingService runs BookingService on the real transaction runner
// and repositories over a sqlmock connection.
func newSQLBookingService(t *testing.T) (*BookingService, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	svc := NewBookingService(database.NewTxRunner(db), repository.NewTimeslotRepo(db), repository.NewBookingRepo(db),
		testWindow, nil, nil, nil)
	svc.now = func() time.Time { return now }
	return svc, mock, now
}

func expectLock(mock sqlmock.Sqlmock, status string, taken bool) {
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF t")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(lockColumns).
			AddRow(int64(11), int64(3), start, start.Add(time.Hour), int64(2500), status, taken))
}

func TestBookingService_CreateHoldsLockUntilCommit(t *testing.T) {
	svc, mock, now := newSQLBookingService(t)

	mock.ExpectBegin()
	expectLock(mock, "AVAILABLE", false)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(int64(7), int64(3), int64(11), "PENDING_PAYMENTS", int64(2500), now.Add(testWindow)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))
	mock.ExpectCommit()

	b, err := svc.Create(context.Background(), 7, 11)
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, int64(42), b.ID)
	assert.Equal(t, model.BookingPendingPayments, b.Status)
	assert.Equal(t, now.Add(testWindow), b.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingService_CreateRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		expect func(mock sqlmock.Sqlmock)
		want   error
	}{
		{
			name: "slot taken",
			expect: func(mock sqlmock.Sqlmock) {
				expectLock(mock, "AVAILABLE", true)
			},
			want: ErrSlotTaken,
		},
		{
			name: "slot blocked",
			expect: func(mock sqlmock.Sqlmock) {
				expectLock(mock, "BLOCKED", false)
			},
			want: ErrTimeslotBlocked,
		},
		{
			name: "unknown slot",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF t")).WillReturnRows(sqlmock.NewRows(lockColumns))
			},
			want: ErrTimeslotNotFound,
		},
		{
			name: "unique index race",
			expect: func(mock sqlmock.Sqlmock) {
				expectLock(mock, "AVAILABLE", false)
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_bookings_timeslot_active"})
			},
			want: ErrSlotTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, _ := newSQLBookingService(t)
			mock.ExpectBegin()
			tt.expect(mock)
			mock.ExpectRollback()

			_, err := svc.Create(context.Background(), 7, 11)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingService_CreateForeignKeyIsNotSlotTaken(t *testing.T) {
	svc, mock, _ := newSQLBookingService(t)
	mock.ExpectBegin()
	expectLock(mock, "AVAILABLE", false)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&pq.Error{Code: "23503", Table: "bookings", Constraint: "bookings_user_id_fkey"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), 7, 11)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, ErrSlotTaken)
	assert.NotErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
