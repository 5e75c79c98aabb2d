package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
)

// TimeslotRepo is the source of truth for bookable ranges and answers the
// contention question "does this slot already have an active booking".
type TimeslotRepo struct {
	db *sql.DB
}

func NewTimeslotRepo(db *sql.DB) *TimeslotRepo { return &TimeslotRepo{db: db} }

const timeslotCols = `t.id, t.room_id, t.start_datetime, t.end_datetime, t.base_price_cents, t.status`

// activeJoin attaches at most one active booking; the partial unique index
// on bookings guarantees there is never more than one.
const activeJoin = `LEFT JOIN bookings b
	ON b.timeslot_id = t.id AND b.status IN ('PENDING_PAYMENTS','PAID')`

func scanTimeslot(row interface{ Scan(...any) error }, t *model.Timeslot, extra ...any) error {
	dest := append([]any{&t.ID, &t.RoomID, &t.Start, &t.End, &t.BasePrice, &t.Status}, extra...)
	return row.Scan(dest...)
}

// LockForBooking locks the timeslot row until q's transaction ends and
// reports whether an active booking references it.  A concurrent caller
// locking the same slot blocks until the first transaction commits or
// rolls back.  Missing slots yield ErrNotFound.
func (r *TimeslotRepo) LockForBooking(ctx context.Context, q database.DBTX, timeslotID int64) (model.TimeslotAvailability, error) {
	query := `SELECT ` + timeslotCols + `, b.id IS NOT NULL AS has_active_booking
		FROM timeslots t ` + activeJoin + `
		WHERE t.id = $1
		LIMIT 1
		FOR UPDATE OF t`
	var out model.TimeslotAvailability
	err := scanTimeslot(q.QueryRowContext(ctx, query, timeslotID), &out.Timeslot, &out.HasActiveBooking)
	if err != nil {
		return model.TimeslotAvailability{}, mapPQError(err)
	}
	return out, nil
}

// ListByRoomAndRange returns the room's slots lying inside [from, to],
// ordered by start, each with its active-booking flag.  No locks are taken.
func (r *TimeslotRepo) ListByRoomAndRange(ctx context.Context, roomID int64, from, to time.Time) ([]model.TimeslotAvailability, error) {
	query := `SELECT ` + timeslotCols + `, b.id IS NOT NULL AS has_active_booking
		FROM timeslots t ` + activeJoin + `
		WHERE t.room_id = $1 AND t.start_datetime >= $2 AND t.end_datetime <= $3
		ORDER BY t.start_datetime`
	rows, err := r.db.QueryContext(ctx, query, roomID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeslotAvailability, 0)
	for rows.Next() {
		var ta model.TimeslotAvailability
		if err := scanTimeslot(rows, &ta.Timeslot, &ta.HasActiveBooking); err != nil {
			return nil, err
		}
		out = append(out, ta)
	}
	return out, rows.Err()
}

// GetByID fetches a single slot.
func (r *TimeslotRepo) GetByID(ctx context.Context, id int64) (model.Timeslot, error) {
	var t model.Timeslot
	err := scanTimeslot(r.db.QueryRowContext(ctx,
		`SELECT `+timeslotCols+` FROM timeslots t WHERE t.id = $1`, id), &t)
	if err != nil {
		return model.Timeslot{}, mapPQError(err)
	}
	return t, nil
}

// Create inserts a slot.  Overlap with another slot of the same room comes
// back as ErrConflict, start >= end as ErrInvalid, an unknown room as
// ErrNotFound.
func (r *TimeslotRepo) Create(ctx context.Context, t *model.Timeslot) error {
	const q = `INSERT INTO timeslots (room_id, start_datetime, end_datetime, base_price_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.db.QueryRowContext(ctx, q, t.RoomID, t.Start, t.End, t.BasePrice, t.Status).Scan(&t.ID)
	if isFKViolation(err) {
		return ErrNotFound
	}
	return mapPQError(err)
}

// TimeslotPatch lists the mutable fields; nil means unchanged.
type TimeslotPatch struct {
	Start     *time.Time
	End       *time.Time
	BasePrice *int64
	Status    *model.TimeslotStatus
}

// Update applies p and returns the stored slot.
func (r *TimeslotRepo) Update(ctx context.Context, id int64, p TimeslotPatch) (model.Timeslot, error) {
	q := `UPDATE timeslots t SET
			start_datetime   = COALESCE($2, t.start_datetime),
			end_datetime     = COALESCE($3, t.end_datetime),
			base_price_cents = COALESCE($4, t.base_price_cents),
			status           = COALESCE($5, t.status),
			updated_at       = now()
		WHERE t.id = $1
		RETURNING ` + timeslotCols
	var t model.Timeslot
	if err := scanTimeslot(r.db.QueryRowContext(ctx, q, id, p.Start, p.End, p.BasePrice, stringPtr(p.Status)), &t); err != nil {
		return model.Timeslot{}, mapPQError(err)
	}
	return t, nil
}

// Delete removes a slot and returns its room id for cache invalidation.
// Slots still referenced by bookings yield ErrConflict.
func (r *TimeslotRepo) Delete(ctx context.Context, id int64) (int64, error) {
	var roomID int64
	err := r.db.QueryRowContext(ctx, `DELETE FROM timeslots WHERE id = $1 RETURNING room_id`, id).Scan(&roomID)
	if err != nil {
		return 0, mapPQError(err)
	}
	return roomID, nil
}
