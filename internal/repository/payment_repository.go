package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/model"
)

// PaymentRepo stores the mocked provider's payment records.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `id, booking_id, external_id, status, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }, p *model.Payment) error {
	return row.Scan(&p.ID, &p.BookingID, &p.ExternalID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

// Create inserts p in CREATED status.  A second payment for the same
// booking is ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, external_id, status)
		VALUES ($1, $2, $3)
		RETURNING ` + paymentCols
	p.Status = model.PaymentCreated
	return mapPQError(scanPayment(r.db.QueryRowContext(ctx, q, p.BookingID, p.ExternalID, p.Status), p))
}

// GetByID reads a payment through q.
func (r *PaymentRepo) GetByID(ctx context.Context, q database.DBTX, id int64) (model.Payment, error) {
	var p model.Payment
	if err := scanPayment(q.QueryRowContext(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1`, id), &p); err != nil {
		return model.Payment{}, mapPQError(err)
	}
	return p, nil
}

// MarkSuccess sets the payment to SUCCESS inside q's transaction.
func (r *PaymentRepo) MarkSuccess(ctx context.Context, q database.DBTX, id int64) (model.Payment, error) {
	const query = `UPDATE payments SET status = 'SUCCESS', updated_at = now()
		WHERE id = $1
		RETURNING ` + paymentCols
	var p model.Payment
	if err := scanPayment(q.QueryRowContext(ctx, query, id), &p); err != nil {
		return model.Payment{}, mapPQError(err)
	}
	return p, nil
}
