package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/SudeepMi/parking-api/internal/models"
	"github.com/SudeepMi/parking-api/internal/services"
)

type parkingApplicationService interface {
	RecordEntry(ctx context.Context, adminID, reservationID int64) (*models.SessionDetail, error)
	RecordExit(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	VerifyPaymentAndRelease(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	RecordPaymentResult(ctx context.Context, sessionID int64, status string) (*models.Payment, error)
	GetSession(ctx context.Context, sessionID int64) (*models.SessionDetail, error)
	ListSessions(ctx context.Context) ([]models.SessionDetail, error)
	ListSessionsForCustomer(ctx context.Context, customerID int64) ([]models.SessionDetail, error)
	CountSessions(ctx context.Context) (int64, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

type ParkingHandler struct {
	service parkingApplicationService
}

func NewParkingHandler(service *services.ParkingService) *ParkingHandler {
	return &ParkingHandler{service: service}
}

type recordEntryRequest struct {
	ReservationID int64 `json:"reservation_id"`
}

type recordPaymentRequest struct {
	Status string `json:"status"`
}

func (h *ParkingHandler) RecordEntry(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
	adminID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req recordEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ReservationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reservation_id must be greater than 0"})
	}

	detail, err := h.service.RecordEntry(c.Context(), adminID, req.ReservationID)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Parking entry created successfully",
		"parking": detail,
	})
}

func (h *ParkingHandler) RecordExit(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parking id"})
	}

	detail, err := h.service.RecordExit(c.Context(), sessionID)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Exit recorded. Payment is pending.",
		"parking": detail,
	})
}

func (h *ParkingHandler) VerifyPaymentAndRelease(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parking id"})
	}

	detail, err := h.service.VerifyPaymentAndRelease(c.Context(), sessionID)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Vehicle is allowed to exit",
		"parking": detail,
	})
}

func (h *ParkingHandler) RecordPayment(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parking id"})
	}

	var req recordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	payment, err := h.service.RecordPaymentResult(c.Context(), sessionID, req.Status)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment": payment})
}

func (h *ParkingHandler) GetParking(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parking id"})
	}

	detail, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{"parking": detail})
}

func (h *ParkingHandler) ListParkings(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	details, err := h.service.ListSessions(c.Context())
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{"parkings": details})
}

func (h *ParkingHandler) ListMyParkings(c *fiber.Ctx) error {
	userID, err := parseAuthUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	details, err := h.service.ListSessionsForCustomer(c.Context(), userID)
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{"parkings": details})
}

func (h *ParkingHandler) CountParkings(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	total, err := h.service.CountSessions(c.Context())
	if err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{"total": total})
}

func (h *ParkingHandler) DeleteParking(c *fiber.Ctx) error {
	if !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	sessionID, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid parking id"})
	}

	if err := h.service.DeleteSession(c.Context(), sessionID); err != nil {
		return mapParkingError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Parking entry deleted successfully"})
}

func isAdmin(c *fiber.Ctx) bool {
	role, ok := c.Locals("role").(string)
	return ok && role == "admin"
}

func mapParkingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidPaymentStatus),
		errors.Is(err, services.ErrInvalidCoordinates):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Parking entry not found"})
	case errors.Is(err, services.ErrReservationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reservation not found"})
	case errors.Is(err, services.ErrAlreadyExited):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Parking already marked as exited"})
	case errors.Is(err, services.ErrPaymentNotVerified):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Payment not verified"})
	case errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrDependencyMissing):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process parking request"})
	}
}
