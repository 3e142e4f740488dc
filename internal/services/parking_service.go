package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SudeepMi/parking-api/internal/models"
	"github.com/SudeepMi/parking-api/internal/repository"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrForbidden              = errors.New("forbidden")
	ErrSessionNotFound        = errors.New("parking session not found")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrAlreadyExited          = errors.New("parking session already exited")
	ErrPaymentNotVerified     = errors.New("payment not verified")
	ErrDependencyMissing      = errors.New("reservation or spot could not be resolved")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidPaymentStatus   = errors.New("invalid payment status")
)

type sessionStore interface {
	Create(ctx context.Context, reservationID, adminID int64) (*models.ParkingSession, error)
	GetByID(ctx context.Context, sessionID int64) (*models.ParkingSession, error)
	List(ctx context.Context) ([]models.ParkingSession, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]models.ParkingSession, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, sessionID int64) error
	UpdateStatusIfCurrent(ctx context.Context, sessionID int64, currentStatus, nextStatus string) (*models.ParkingSession, error)
}

type paymentStore interface {
	Create(ctx context.Context, input repository.CreatePaymentInput) (*models.Payment, error)
	GetBySessionID(ctx context.Context, sessionID int64) (*models.Payment, error)
	ListBySessionIDs(ctx context.Context, sessionIDs []int64) (map[int64]models.Payment, error)
}

type reservationReader interface {
	GetByIDWithSpot(ctx context.Context, reservationID int64) (*models.Reservation, error)
}

// GateNotifier receives lifecycle transitions so connected gate dashboards can
// follow sessions live. Implemented by the websocket hub.
type GateNotifier interface {
	PublishSessionEvent(event string, session *models.ParkingSession)
}

const (
	EventVehicleEntered  = "vehicle_entered"
	EventExitRecorded    = "exit_recorded"
	EventVehicleReleased = "vehicle_released"
)

// ParkingService owns the session state machine from entry to paid release.
type ParkingService struct {
	db           *pgxpool.Pool
	sessions     sessionStore
	payments     paymentStore
	reservations reservationReader
	notifier     GateNotifier
}

func NewParkingService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	paymentRepo *repository.PaymentRepository,
	reservationRepo *repository.ReservationRepository,
	notifier GateNotifier,
) *ParkingService {
	return &ParkingService{
		db:           db,
		sessions:     sessionRepo,
		payments:     paymentRepo,
		reservations: reservationRepo,
		notifier:     notifier,
	}
}

// RecordEntry creates a new active session against an existing reservation.
// No cost is computed here; the reservation only fixes the rate for later.
func (s *ParkingService) RecordEntry(ctx context.Context, adminID, reservationID int64) (*models.SessionDetail, error) {
	if reservationID <= 0 {
		return nil, ErrInvalidInput
	}

	reservation, err := s.reservations.GetByIDWithSpot(ctx, reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	session, err := s.sessions.Create(ctx, reservationID, adminID)
	if err != nil {
		return nil, err
	}

	s.notify(EventVehicleEntered, session)
	return &models.SessionDetail{ParkingSession: *session, Reservation: reservation}, nil
}

// RecordExit stamps the exit time, derives duration and charge from the
// reservation's rate, and moves the session to payment_pending. The whole
// operation runs in one transaction with the session row locked, so a
// concurrent exit observes ErrAlreadyExited instead of writing twice.
func (s *ParkingService) RecordExit(ctx context.Context, sessionID int64) (*models.SessionDetail, error) {
	if sessionID <= 0 {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txReservationRepo := repository.NewReservationRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var reservation *models.Reservation
	reservation, err = txReservationRepo.GetByIDWithSpot(ctx, session.ReservationID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		reservation = nil
	}

	update, err := buildExitUpdate(session, reservation, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	updated, err := txSessionRepo.ApplyExit(ctx, sessionID, update.exitedTime, update.durationMinutes, update.totalAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyExited
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notify(EventExitRecorded, updated)
	return &models.SessionDetail{ParkingSession: *updated, Reservation: reservation}, nil
}

// VerifyPaymentAndRelease gates the terminal transition on a successful
// payment. The session stays in payment_pending until the payment clears.
func (s *ParkingService) VerifyPaymentAndRelease(ctx context.Context, sessionID int64) (*models.SessionDetail, error) {
	if sessionID <= 0 {
		return nil, ErrInvalidInput
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotVerified
		}
		return nil, err
	}

	if err := validateRelease(session, payment); err != nil {
		return nil, err
	}

	updated, err := s.sessions.UpdateStatusIfCurrent(
		ctx,
		sessionID,
		models.SessionStatusPaymentPending,
		models.SessionStatusExited,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notify(EventVehicleReleased, updated)
	return &models.SessionDetail{ParkingSession: *updated, Payment: payment}, nil
}

// RecordPaymentResult stores an already-settled payment outcome for a session
// whose charge has been computed. Verification happens separately.
func (s *ParkingService) RecordPaymentResult(ctx context.Context, sessionID int64, status string) (*models.Payment, error) {
	normalized, err := normalizePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != models.SessionStatusPaymentPending || session.TotalAmount == nil {
		return nil, ErrInvalidStateTransition
	}

	return s.payments.Create(ctx, repository.CreatePaymentInput{
		SessionID: sessionID,
		Amount:    *session.TotalAmount,
		Status:    normalized,
	})
}

func (s *ParkingService) GetSession(ctx context.Context, sessionID int64) (*models.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	detail := &models.SessionDetail{ParkingSession: *session}

	reservation, err := s.reservations.GetByIDWithSpot(ctx, session.ReservationID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Reservation = reservation
	}

	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}

	return detail, nil
}

func (s *ParkingService) ListSessions(ctx context.Context) ([]models.SessionDetail, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.attachPayments(ctx, sessions)
}

func (s *ParkingService) ListSessionsForCustomer(ctx context.Context, customerID int64) ([]models.SessionDetail, error) {
	if customerID <= 0 {
		return nil, ErrInvalidInput
	}
	sessions, err := s.sessions.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.attachPayments(ctx, sessions)
}

func (s *ParkingService) CountSessions(ctx context.Context) (int64, error) {
	return s.sessions.Count(ctx)
}

// DeleteSession removes a session regardless of its lifecycle state.
func (s *ParkingService) DeleteSession(ctx context.Context, sessionID int64) error {
	if sessionID <= 0 {
		return ErrInvalidInput
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

func (s *ParkingService) attachPayments(ctx context.Context, sessions []models.ParkingSession) ([]models.SessionDetail, error) {
	sessionIDs := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	paymentsBySession, err := s.payments.ListBySessionIDs(ctx, sessionIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.SessionDetail, 0, len(sessions))
	for _, session := range sessions {
		detail := models.SessionDetail{ParkingSession: session}
		if payment, ok := paymentsBySession[session.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}

	return details, nil
}

func (s *ParkingService) notify(event string, session *models.ParkingSession) {
	if s.notifier != nil {
		s.notifier.PublishSessionEvent(event, session)
	}
}

type exitUpdate struct {
	exitedTime      time.Time
	durationMinutes int
	totalAmount     float64
}

func buildExitUpdate(session *models.ParkingSession, reservation *models.Reservation, now time.Time) (*exitUpdate, error) {
	if session.Status != models.SessionStatusActive {
		return nil, ErrAlreadyExited
	}
	if reservation == nil || reservation.Spot == nil {
		return nil, ErrDependencyMissing
	}

	minutes, err := billableMinutes(session.EnteredTime, now)
	if err != nil {
		return nil, err
	}

	return &exitUpdate{
		exitedTime:      now,
		durationMinutes: minutes,
		totalAmount:     sessionCharge(minutes, reservation.Spot.PricePerHour),
	}, nil
}

// billableMinutes floors to whole minutes: partial minutes are not billed.
// An exit time before the entry time means a skewed clock and is rejected
// rather than producing a negative charge.
func billableMinutes(entered, exited time.Time) (int, error) {
	elapsed := exited.Sub(entered)
	if elapsed < 0 {
		return 0, ErrInvalidInput
	}
	return int(elapsed / time.Minute), nil
}

func sessionCharge(durationMinutes int, pricePerHour float64) float64 {
	amount := float64(durationMinutes) / 60 * pricePerHour
	return math.Round(amount*100) / 100
}

func validateRelease(session *models.ParkingSession, payment *models.Payment) error {
	if payment == nil || payment.Status != models.PaymentStatusSuccessful {
		return ErrPaymentNotVerified
	}
	switch session.Status {
	case models.SessionStatusPaymentPending:
		return nil
	case models.SessionStatusExited:
		return ErrAlreadyExited
	default:
		return ErrInvalidStateTransition
	}
}

func normalizePaymentStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "successful", "success", "succeeded":
		return models.PaymentStatusSuccessful, nil
	case "failed", "failure":
		return models.PaymentStatusFailed, nil
	case "pending":
		return models.PaymentStatusPending, nil
	default:
		return "", ErrInvalidPaymentStatus
	}
}
