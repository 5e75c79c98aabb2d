package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapPQError(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no rows", in: sql.ErrNoRows, want: ErrNotFound},
		{name: "unique", in: &pq.Error{Code: "23505", Constraint: "uq_bookings_timeslot_active"}, want: ErrDuplicate},
		{name: "exclusion", in: &pq.Error{Code: "23P01", Constraint: "ex_timeslots_room_overlap"}, want: ErrDuplicate},
		{name: "foreign key", in: &pq.Error{Code: "23503", Table: "bookings"}, want: ErrConflict},
		{name: "check", in: &pq.Error{Code: "23514", Constraint: "ck_timeslots_range"}, want: ErrInvalid},
		{name: "passthrough", in: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPQError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestErrEmailExistsIsConflict(t *testing.T) {
	assert.ErrorIs(t, ErrEmailExists, ErrConflict)
}

func TestForeignKeyIsNotDuplicate(t *testing.T) {
	err := mapPQError(&pq.Error{Code: "23503", Table: "bookings"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, ErrDuplicate, ErrConflict)
}
