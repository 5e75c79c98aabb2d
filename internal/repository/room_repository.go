package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
)

// RoomRepo provides CRUD for rooms.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomCols = `id, location_id, name, capacity, description, type, time_slot_type,
	hour_price_cents, is_active, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }, rm *model.Room) error {
	return row.Scan(&rm.ID, &rm.LocationID, &rm.Name, &rm.Capacity, &rm.Description, &rm.Type,
		&rm.TimeSlotType, &rm.HourPrice, &rm.IsActive, &rm.CreatedAt, &rm.UpdatedAt)
}

// Create inserts a room under an existing location.  An unknown location
// violates the foreign key and is reported as ErrNotFound.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms (location_id, name, capacity, description, type, time_slot_type, hour_price_cents, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + roomCols
	err := scanRoom(r.db.QueryRowContext(ctx, q, rm.LocationID, rm.Name, rm.Capacity, rm.Description,
		rm.Type, rm.TimeSlotType, rm.HourPrice, rm.IsActive), rm)
	if isFKViolation(err) {
		return ErrNotFound
	}
	return mapPQError(err)
}

func (r *RoomRepo) GetByID(ctx context.Context, id int64) (model.Room, error) {
	var rm model.Room
	if err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1`, id), &rm); err != nil {
		return model.Room{}, mapPQError(err)
	}
	return rm, nil
}

// List returns rooms ordered by id, narrowed by f.
func (r *RoomRepo) List(ctx context.Context, f model.RoomFilters) ([]model.Room, error) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, col+" = $"+strconv.Itoa(len(args)))
	}
	if f.LocationID > 0 {
		add("location_id", f.LocationID)
	}
	if f.Type != "" {
		add("type", f.Type)
	}
	if f.IsActive != nil {
		add("is_active", *f.IsActive)
	}
	q := `SELECT ` + roomCols + ` FROM rooms`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// RoomPatch lists the mutable fields; nil means unchanged.
type RoomPatch struct {
	Name         *string
	Capacity     *int
	Description  *string
	Type         *model.RoomType
	TimeSlotType *model.TimeSlotType
	HourPrice    *int64
	IsActive     *bool
}

func (r *RoomRepo) Update(ctx context.Context, id int64, p RoomPatch) (model.Room, error) {
	const q = `UPDATE rooms SET
			name             = COALESCE($2, name),
			capacity         = COALESCE($3, capacity),
			description      = COALESCE($4, description),
			type             = COALESCE($5, type),
			time_slot_type   = COALESCE($6, time_slot_type),
			hour_price_cents = COALESCE($7, hour_price_cents),
			is_active        = COALESCE($8, is_active),
			updated_at       = now()
		WHERE id = $1
		RETURNING ` + roomCols
	var rm model.Room
	err := scanRoom(r.db.QueryRowContext(ctx, q, id, p.Name, p.Capacity, p.Description,
		stringPtr(p.Type), stringPtr(p.TimeSlotType), p.HourPrice, p.IsActive), &rm)
	if err != nil {
		return model.Room{}, mapPQError(err)
	}
	return rm, nil
}

// Delete removes a room; rooms with bookings yield ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return mapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// stringPtr converts a pointer to a string-kinded enum into *string so
// lib/pq receives a plain text parameter.
func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
