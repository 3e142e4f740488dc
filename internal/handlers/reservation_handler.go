package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SudeepMi/parking-api/internal/repository"
)

type ReservationHandler struct {
	reservationRepo *repository.ReservationRepository
	spotRepo        *repository.SpotRepository
}

func NewReservationHandler(reservationRepo *repository.ReservationRepository, spotRepo *repository.SpotRepository) *ReservationHandler {
	return &ReservationHandler{
		reservationRepo: reservationRepo,
		spotRepo:        spotRepo,
	}
}

type createReservationRequest struct {
	SpotID int64 `json:"spot_id"`
}

func (h *ReservationHandler) CreateReservation(c *fiber.Ctx) error {
	customerID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.SpotID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "spot_id must be greater than 0"})
	}

	if _, err := h.spotRepo.GetByID(c.Context(), req.SpotID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Spot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch spot"})
	}

	reservation, err := h.reservationRepo.Create(c.Context(), repository.CreateReservationInput{
		Code:       uuid.NewString(),
		CustomerID: customerID,
		SpotID:     req.SpotID,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Spot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create reservation"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reservation": reservation})
}

func (h *ReservationHandler) ListMyReservations(c *fiber.Ctx) error {
	customerID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	reservations, err := h.reservationRepo.ListByCustomer(c.Context(), customerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list reservations"})
	}

	return c.JSON(fiber.Map{"reservations": reservations})
}
