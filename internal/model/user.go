package model

import "time"

// Roles carried in the access token.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Handlers never serialize it directly because of PasswordHash.
type User struct {
	ID           int64     // users.id
	FirstName    string    // users.first_name
	SecondName   string    // users.second_name
	Email        string    // users.email (unique)
	Username     string    // users.username (unique)
	PasswordHash string    // users.hashed_password
	Role         string    // users.role (USER or ADMIN)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user has the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        int64      // refresh_tokens.id
	UserID    int64      // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Requester is the authenticated caller of a per-booking operation.
type Requester struct {
	UserID  int64
	IsAdmin bool
}

// CanAccess reports whether the requester may act on a resource owned by
// ownerID.
func (r Requester) CanAccess(ownerID int64) bool {
	return r.IsAdmin || r.UserID == ownerID
}
