package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-booking/internal/model"
)

// LocationRepo provides CRUD for locations.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

const locationCols = `id, name, address, description, created_at, updated_at`

func scanLocation(row interface{ Scan(...any) error }, l *model.Location) error {
	return row.Scan(&l.ID, &l.Name, &l.Address, &l.Description, &l.CreatedAt, &l.UpdatedAt)
}

func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	const q = `INSERT INTO locations (name, address, description) VALUES ($1, $2, $3) RETURNING ` + locationCols
	return mapPQError(scanLocation(r.db.QueryRowContext(ctx, q, l.Name, l.Address, l.Description), l))
}

func (r *LocationRepo) GetByID(ctx context.Context, id int64) (model.Location, error) {
	var l model.Location
	if err := scanLocation(r.db.QueryRowContext(ctx, `SELECT `+locationCols+` FROM locations WHERE id = $1`, id), &l); err != nil {
		return model.Location{}, mapPQError(err)
	}
	return l, nil
}

// List returns all locations ordered by id.
func (r *LocationRepo) List(ctx context.Context) ([]model.Location, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+locationCols+` FROM locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Location, 0)
	for rows.Next() {
		var l model.Location
		if err := scanLocation(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// LocationPatch lists the mutable fields; nil means unchanged.
type LocationPatch struct {
	Name        *string
	Address     *string
	Description *string
}

func (r *LocationRepo) Update(ctx context.Context, id int64, p LocationPatch) (model.Location, error) {
	const q = `UPDATE locations SET
			name        = COALESCE($2, name),
			address     = COALESCE($3, address),
			description = COALESCE($4, description),
			updated_at  = now()
		WHERE id = $1
		RETURNING ` + locationCols
	var l model.Location
	if err := scanLocation(r.db.QueryRowContext(ctx, q, id, p.Name, p.Address, p.Description), &l); err != nil {
		return model.Location{}, mapPQError(err)
	}
	return l, nil
}

// Delete removes a location; locations that still have rooms yield
// ErrConflict.
func (r *LocationRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return mapPQError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
