package models

import "time"

type ParkingSpot struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PricePerHour float64   `json:"price_per_hour"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Reservation struct {
	ID         int64        `json:"id"`
	Code       string       `json:"code"`
	CustomerID int64        `json:"customer_id"`
	SpotID     int64        `json:"spot_id"`
	CreatedAt  time.Time    `json:"created_at"`
	Spot       *ParkingSpot `json:"spot,omitempty"`
}

// SpotDistance is one entry of a nearest-spot result, distance in meters.
type SpotDistance struct {
	SpotID         int64   `json:"spot_id"`
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distance_meters"`
}
