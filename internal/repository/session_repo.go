package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SudeepMi/parking-api/internal/models"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, reservation_id, admin_id, entered_time, exited_time, duration_min, total_amount, status, created_at, updated_at`

func scanSession(row pgx.Row) (*models.ParkingSession, error) {
	var session models.ParkingSession
	err := row.Scan(
		&session.ID,
		&session.ReservationID,
		&session.AdminID,
		&session.EnteredTime,
		&session.ExitedTime,
		&session.DurationMinutes,
		&session.TotalAmount,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, reservationID, adminID int64) (*models.ParkingSession, error) {
	query := `
		INSERT INTO parkings (reservation_id, admin_id, entered_time, status)
		VALUES ($1, $2, NOW(), 'active')
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, reservationID, adminID))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.ParkingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM parkings
		WHERE id = $1
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.ParkingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM parkings
		WHERE id = $1
		FOR UPDATE
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context) ([]models.ParkingSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM parkings
		ORDER BY entered_time DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListByCustomer joins through the reservation: the customer is not stored on
// the session itself.
func (r *SessionRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.ParkingSession, error) {
	query := `
		SELECT p.id, p.reservation_id, p.admin_id, p.entered_time, p.exited_time, p.duration_min, p.total_amount, p.status, p.created_at, p.updated_at
		FROM parkings p
		JOIN reservations r ON r.id = p.reservation_id
		WHERE r.customer_id = $1
		ORDER BY p.entered_time DESC, p.id DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *SessionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parkings`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parkings WHERE id = $1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ApplyExit writes the derived exit fields and flips the status from active to
// payment_pending in one statement. The status predicate makes concurrent
// exits lose with pgx.ErrNoRows instead of overwriting the first write.
func (r *SessionRepository) ApplyExit(
	ctx context.Context,
	sessionID int64,
	exitedTime time.Time,
	durationMinutes int,
	totalAmount float64,
) (*models.ParkingSession, error) {
	query := `
		UPDATE parkings
		SET exited_time = $2, duration_min = $3, total_amount = $4, status = 'payment_pending', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, exitedTime, durationMinutes, totalAmount))
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.ParkingSession, error) {
	query := `
		UPDATE parkings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

func collectSessions(rows pgx.Rows) ([]models.ParkingSession, error) {
	sessions := make([]models.ParkingSession, 0)
	for rows.Next() {
		var session models.ParkingSession
		if err := rows.Scan(
			&session.ID,
			&session.ReservationID,
			&session.AdminID,
			&session.EnteredTime,
			&session.ExitedTime,
			&session.DurationMinutes,
			&session.TotalAmount,
			&session.Status,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
