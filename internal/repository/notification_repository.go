package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-booking/internal/model"
)

// NotificationRepo records every booking notification attempt.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create stores n as QUEUED and fills in ID and CreatedAt.
func (r *NotificationRepo) Create(ctx context.Context, n *model.NotificationLog) error {
	n.Status = model.NotificationQueued
	payload := n.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO notification_logs (user_id, booking_id, type, status, payload)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		n.UserID, n.BookingID, n.Type, n.Status, payload).Scan(&n.ID, &n.CreatedAt)
	return mapPQError(err)
}

// MarkStatus records the delivery outcome; errMsg is stored only when non-empty.
func (r *NotificationRepo) MarkStatus(ctx context.Context, id int64, status model.NotificationStatus, errMsg string) error {
	var e *string
	if errMsg != "" {
		e = &errMsg
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_logs SET status = $2, error = $3, updated_at = now() WHERE id = $1`,
		id, status, e)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
