package services

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/SudeepMi/parking-api/internal/models"
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// SpotCatalog is the read-only spot source the matcher ranks against.
type SpotCatalog interface {
	ListAll(ctx context.Context) ([]models.ParkingSpot, error)
}

// NearestSpotService ranks catalog spots by great-circle distance to an
// origin. It holds no state of its own and is safe for concurrent use.
type NearestSpotService struct {
	spotRepo SpotCatalog
}

func NewNearestSpotService(spotRepo SpotCatalog) *NearestSpotService {
	return &NearestSpotService{spotRepo: spotRepo}
}

// FindNearest returns the k catalog spots closest to (lat, lng), ascending by
// distance. Ties keep catalog order. k larger than the catalog returns the
// whole catalog; k <= 0 returns an empty result rather than an error.
func (s *NearestSpotService) FindNearest(ctx context.Context, k int, lat, lng float64) ([]models.SpotDistance, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []models.SpotDistance{}, nil
	}

	spots, err := s.spotRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]models.SpotDistance, 0, len(spots))
	for _, spot := range spots {
		ranked = append(ranked, models.SpotDistance{
			SpotID:         spot.ID,
			Name:           spot.Name,
			DistanceMeters: haversineMeters(lat, lng, spot.Latitude, spot.Longitude),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMeters < ranked[j].DistanceMeters
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}

	return ranked, nil
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return ErrInvalidCoordinates
	}
	if lng < -180 || lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// haversineMeters computes the great-circle distance between two points.
// Coordinates are angular degrees, so planar distance would be wrong.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusMeters = 6371000.0

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
