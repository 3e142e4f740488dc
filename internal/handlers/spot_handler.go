package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/SudeepMi/parking-api/internal/models"
	"github.com/SudeepMi/parking-api/internal/repository"
	"github.com/SudeepMi/parking-api/internal/services"
)

const defaultNearestLimit = 3

type nearestSpotFinder interface {
	FindNearest(ctx context.Context, k int, lat, lng float64) ([]models.SpotDistance, error)
}

type userLocator interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

type SpotHandler struct {
	spotRepo *repository.SpotRepository
	userRepo userLocator
	nearest  nearestSpotFinder
}

func NewSpotHandler(spotRepo *repository.SpotRepository, userRepo *repository.UserRepository, nearest *services.NearestSpotService) *SpotHandler {
	return &SpotHandler{
		spotRepo: spotRepo,
		userRepo: userRepo,
		nearest:  nearest,
	}
}

type createSpotRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	PricePerHour float64 `json:"price_per_hour"`
}

func (h *SpotHandler) CreateSpot(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req createSpotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Coordinates out of range"})
	}
	if req.PricePerHour < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "price_per_hour must not be negative"})
	}

	spot, err := h.spotRepo.Create(c.Context(), repository.CreateSpotInput{
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		PricePerHour: req.PricePerHour,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create spot"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"spot": spot})
}

func (h *SpotHandler) ListSpots(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	spots, total, err := h.spotRepo.List(c.Context(), (page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list spots"})
	}

	return c.JSON(fiber.Map{
		"spots":      spots,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *SpotHandler) GetSpot(c *fiber.Ctx) error {
	spotID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid spot id"})
	}

	spot, err := h.spotRepo.GetByID(c.Context(), spotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Spot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch spot"})
	}

	return c.JSON(fiber.Map{"spot": spot})
}

// Nearest ranks spots against the caller's last stored location, so the
// caller must have set one through the location endpoint first.
func (h *SpotHandler) Nearest(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}
	if user.Latitude == nil || user.Longitude == nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "Location not set. Update your location first."})
	}

	k := parsePositiveInt(c.Query("k"), defaultNearestLimit)

	nearest, err := h.nearest.FindNearest(c.Context(), k, *user.Latitude, *user.Longitude)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCoordinates) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Coordinates out of range"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to rank spots"})
	}

	return c.JSON(fiber.Map{"spots": nearest})
}
