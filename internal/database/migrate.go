package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// migrations is applied in order on every start; each statement is
// idempotent.  btree_gist provides the equality operator class the
// timeslot exclusion constraint needs for room_id.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		first_name      VARCHAR(100) NOT NULL,
		second_name     VARCHAR(100) NOT NULL,
		email           VARCHAR(255) NOT NULL UNIQUE,
		username        VARCHAR(100) NOT NULL UNIQUE,
		hashed_password VARCHAR(255) NOT NULL,
		role            VARCHAR(10)  NOT NULL DEFAULT 'USER' CHECK (role IN ('USER','ADMIN')),
		created_at      TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash CHAR(64)    NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS locations (
		id          BIGSERIAL PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		address     VARCHAR(500) NOT NULL,
		description TEXT,
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id               BIGSERIAL PRIMARY KEY,
		location_id      BIGINT       NOT NULL REFERENCES locations(id) ON DELETE RESTRICT,
		name             VARCHAR(255) NOT NULL,
		capacity         INTEGER      NOT NULL CHECK (capacity > 0),
		description      TEXT,
		type             VARCHAR(20)  NOT NULL CHECK (type IN ('MEETING_ROOM','COWORK_DESK','STUDIO','SPORT')),
		time_slot_type   VARCHAR(10)  NOT NULL DEFAULT 'FIXED' CHECK (time_slot_type IN ('FLEXIBLE','FIXED')),
		hour_price_cents BIGINT       NOT NULL DEFAULT 0 CHECK (hour_price_cents >= 0),
		is_active        BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS timeslots (
		id               BIGSERIAL PRIMARY KEY,
		room_id          BIGINT      NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		start_datetime   TIMESTAMPTZ NOT NULL,
		end_datetime     TIMESTAMPTZ NOT NULL,
		base_price_cents BIGINT      NOT NULL CHECK (base_price_cents >= 0),
		status           VARCHAR(10) NOT NULL DEFAULT 'AVAILABLE' CHECK (status IN ('AVAILABLE','BLOCKED')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ck_timeslots_range CHECK (start_datetime < end_datetime),
		CONSTRAINT uq_timeslots_room_range UNIQUE (room_id, start_datetime, end_datetime),
		CONSTRAINT ex_timeslots_room_overlap EXCLUDE USING gist (
			room_id WITH =,
			tstzrange(start_datetime, end_datetime, '[]') WITH &&
		)
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		room_id           BIGINT      NOT NULL REFERENCES rooms(id) ON DELETE RESTRICT,
		timeslot_id       BIGINT      NOT NULL REFERENCES timeslots(id) ON DELETE RESTRICT,
		status            VARCHAR(20) NOT NULL DEFAULT 'PENDING_PAYMENTS'
			CHECK (status IN ('PENDING_PAYMENTS','PAID','CANCELED','EXPIRED')),
		total_price_cents BIGINT      NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		paid_at           TIMESTAMPTZ,
		canceled_at       TIMESTAMPTZ,
		expires_at        TIMESTAMPTZ NOT NULL
	)`,

	// At most one active booking per timeslot.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_bookings_timeslot_active
		ON bookings (timeslot_id) WHERE status IN ('PENDING_PAYMENTS','PAID')`,

	`CREATE TABLE IF NOT EXISTS payments (
		id          BIGSERIAL PRIMARY KEY,
		booking_id  BIGINT       NOT NULL UNIQUE REFERENCES bookings(id) ON DELETE CASCADE,
		external_id VARCHAR(255) NOT NULL,
		status      VARCHAR(10)  NOT NULL DEFAULT 'CREATED' CHECK (status IN ('CREATED','SUCCESS','FAILED')),
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS notification_logs (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		booking_id BIGINT      REFERENCES bookings(id) ON DELETE SET NULL,
		type       VARCHAR(20) NOT NULL,
		status     VARCHAR(10) NOT NULL DEFAULT 'QUEUED' CHECK (status IN ('QUEUED','SENT','FAILED')),
		payload    JSONB       NOT NULL DEFAULT '{}'::jsonb,
		error      TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_timeslots_room_start ON timeslots (room_id, start_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_created ON bookings (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_pending_expires ON bookings (expires_at) WHERE status = 'PENDING_PAYMENTS'`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_location ON rooms (location_id)`,
}

// RunMigrations applies the schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logrus.WithField("statements", len(migrations)).Info("database migrations applied")
	return nil
}
