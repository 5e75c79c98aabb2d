package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, first_name, second_name, email, username, hashed_password, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.FirstName, &u.SecondName, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
}

// Create hashes password, inserts u and fills in the generated columns.
// Duplicate e-mail or username yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	err = scanUser(r.DB.QueryRowContext(ctx,
		`INSERT INTO users (first_name, second_name, email, username, hashed_password, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userCols,
		u.FirstName, u.SecondName, u.Email, u.Username, hash, u.Role), u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email), &u)
	return u, mapPQError(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id), &u)
	return u, mapPQError(err)
}
