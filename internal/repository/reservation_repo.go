package repository

import (
	"context"

	"github.com/SudeepMi/parking-api/internal/models"
)

type CreateReservationInput struct {
	Code       string
	CustomerID int64
	SpotID     int64
}

type ReservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (code, customer_id, spot_id)
		VALUES ($1, $2, $3)
		RETURNING id, code, customer_id, spot_id, created_at
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, input.Code, input.CustomerID, input.SpotID).Scan(
		&reservation.ID,
		&reservation.Code,
		&reservation.CustomerID,
		&reservation.SpotID,
		&reservation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	query := `
		SELECT id, code, customer_id, spot_id, created_at
		FROM reservations
		WHERE id = $1
	`
	var reservation models.Reservation
	err := r.db.QueryRow(ctx, query, reservationID).Scan(
		&reservation.ID,
		&reservation.Code,
		&reservation.CustomerID,
		&reservation.SpotID,
		&reservation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByIDWithSpot resolves the reservation together with the spot that fixes
// its hourly rate. Cost computation at exit depends on both being present.
func (r *ReservationRepository) GetByIDWithSpot(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	query := `
		SELECT r.id, r.code, r.customer_id, r.spot_id, r.created_at,
		       s.id, s.name, s.latitude, s.longitude, s.price_per_hour, s.created_at, s.updated_at
		FROM reservations r
		JOIN parking_spots s ON s.id = r.spot_id
		WHERE r.id = $1
	`
	var reservation models.Reservation
	var spot models.ParkingSpot
	err := r.db.QueryRow(ctx, query, reservationID).Scan(
		&reservation.ID,
		&reservation.Code,
		&reservation.CustomerID,
		&reservation.SpotID,
		&reservation.CreatedAt,
		&spot.ID,
		&spot.Name,
		&spot.Latitude,
		&spot.Longitude,
		&spot.PricePerHour,
		&spot.CreatedAt,
		&spot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	reservation.Spot = &spot
	return &reservation, nil
}

func (r *ReservationRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.Reservation, error) {
	query := `
		SELECT r.id, r.code, r.customer_id, r.spot_id, r.created_at,
		       s.id, s.name, s.latitude, s.longitude, s.price_per_hour, s.created_at, s.updated_at
		FROM reservations r
		JOIN parking_spots s ON s.id = r.spot_id
		WHERE r.customer_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]models.Reservation, 0)
	for rows.Next() {
		var reservation models.Reservation
		var spot models.ParkingSpot
		if err := rows.Scan(
			&reservation.ID,
			&reservation.Code,
			&reservation.CustomerID,
			&reservation.SpotID,
			&reservation.CreatedAt,
			&spot.ID,
			&spot.Name,
			&spot.Latitude,
			&spot.Longitude,
			&spot.PricePerHour,
			&spot.CreatedAt,
			&spot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reservation.Spot = &spot
		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}
