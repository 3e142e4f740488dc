package repository

import (
	"context"

	"github.com/SudeepMi/parking-api/internal/models"
)

type CreatePaymentInput struct {
	SessionID int64
	Amount    float64
	Status    string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := `
		INSERT INTO payments (parking_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, parking_id, amount, status, created_at
	`
	var payment models.Payment
	err := r.db.QueryRow(ctx, query, input.SessionID, input.Amount, input.Status).Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetBySessionID returns the most recent payment for a session. The release
// gate only considers the latest attempt.
func (r *PaymentRepository) GetBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error) {
	query := `
		SELECT id, parking_id, amount, status, created_at
		FROM payments
		WHERE parking_id = $1
		ORDER BY id DESC
		LIMIT 1
	`
	var payment models.Payment
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&payment.ID,
		&payment.SessionID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return payments, nil
	}

	query := `
		SELECT DISTINCT ON (parking_id) id, parking_id, amount, status, created_at
		FROM payments
		WHERE parking_id = ANY($1)
		ORDER BY parking_id, id DESC
	`
	rows, err := r.db.Query(ctx, query, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.SessionID,
			&payment.Amount,
			&payment.Status,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments[payment.SessionID] = payment
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
