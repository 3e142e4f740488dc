package repository

import (
	"context"

	"github.com/SudeepMi/parking-api/internal/models"
)

type CreateSpotInput struct {
	Name         string
	Latitude     float64
	Longitude    float64
	PricePerHour float64
}

type SpotRepository struct {
	db DBTX
}

func NewSpotRepository(db DBTX) *SpotRepository {
	return &SpotRepository{db: db}
}

func (r *SpotRepository) Create(ctx context.Context, input CreateSpotInput) (*models.ParkingSpot, error) {
	query := `
		INSERT INTO parking_spots (name, latitude, longitude, price_per_hour)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, latitude, longitude, price_per_hour, created_at, updated_at
	`
	var spot models.ParkingSpot
	err := r.db.QueryRow(ctx, query, input.Name, input.Latitude, input.Longitude, input.PricePerHour).Scan(
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
	return &spot, nil
}

func (r *SpotRepository) GetByID(ctx context.Context, spotID int64) (*models.ParkingSpot, error) {
	query := `
		SELECT id, name, latitude, longitude, price_per_hour, created_at, updated_at
		FROM parking_spots
		WHERE id = $1
	`
	var spot models.ParkingSpot
	err := r.db.QueryRow(ctx, query, spotID).Scan(
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
	return &spot, nil
}

func (r *SpotRepository) ListAll(ctx context.Context) ([]models.ParkingSpot, error) {
	query := `
		SELECT id, name, latitude, longitude, price_per_hour, created_at, updated_at
		FROM parking_spots
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := make([]models.ParkingSpot, 0)
	for rows.Next() {
		var spot models.ParkingSpot
		if err := rows.Scan(
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
		spots = append(spots, spot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return spots, nil
}

func (r *SpotRepository) List(ctx context.Context, offset, limit int) ([]models.ParkingSpot, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parking_spots`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, latitude, longitude, price_per_hour, created_at, updated_at
		FROM parking_spots
		ORDER BY id ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	spots := make([]models.ParkingSpot, 0, limit)
	for rows.Next() {
		var spot models.ParkingSpot
		if err := rows.Scan(
			&spot.ID,
			&spot.Name,
			&spot.Latitude,
			&spot.Longitude,
			&spot.PricePerHour,
			&spot.CreatedAt,
			&spot.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		spots = append(spots, spot)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return spots, total, nil
}
