package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SudeepMi/parking-api/internal/models"
	"github.com/SudeepMi/parking-api/internal/repository"
)

type stubSessionStore struct {
	session      *models.ParkingSession
	sessions     []models.ParkingSession
	getErr       error
	createResult *models.ParkingSession
	createErr    error
	updateResult *models.ParkingSession
	updateErr    error
	deleteErr    error
	countResult  int64

	lastCurrentStatus string
	lastNextStatus    string
}

func (s *stubSessionStore) Create(_ context.Context, reservationID, adminID int64) (*models.ParkingSession, error) {
	return s.createResult, s.createErr
}

func (s *stubSessionStore) GetByID(_ context.Context, sessionID int64) (*models.ParkingSession, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.session, nil
}

func (s *stubSessionStore) List(_ context.Context) ([]models.ParkingSession, error) {
	return s.sessions, nil
}

func (s *stubSessionStore) ListByCustomer(_ context.Context, customerID int64) ([]models.ParkingSession, error) {
	return s.sessions, nil
}

func (s *stubSessionStore) Count(_ context.Context) (int64, error) {
	return s.countResult, nil
}

func (s *stubSessionStore) Delete(_ context.Context, sessionID int64) error {
	return s.deleteErr
}

func (s *stubSessionStore) UpdateStatusIfCurrent(_ context.Context, sessionID int64, currentStatus, nextStatus string) (*models.ParkingSession, error) {
	s.lastCurrentStatus = currentStatus
	s.lastNextStatus = nextStatus
	return s.updateResult, s.updateErr
}

type stubPaymentStore struct {
	payment      *models.Payment
	getErr       error
	created      *repository.CreatePaymentInput
	createResult *models.Payment
	bySession    map[int64]models.Payment
}

func (s *stubPaymentStore) Create(_ context.Context, input repository.CreatePaymentInput) (*models.Payment, error) {
	s.created = &input
	return s.createResult, nil
}

func (s *stubPaymentStore) GetBySessionID(_ context.Context, sessionID int64) (*models.Payment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.payment, nil
}

func (s *stubPaymentStore) ListBySessionIDs(_ context.Context, sessionIDs []int64) (map[int64]models.Payment, error) {
	if s.bySession == nil {
		return map[int64]models.Payment{}, nil
	}
	return s.bySession, nil
}

type stubReservationReader struct {
	reservation *models.Reservation
	err         error
}

func (s *stubReservationReader) GetByIDWithSpot(_ context.Context, reservationID int64) (*models.Reservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reservation, nil
}

type stubGateNotifier struct {
	events []string
}

func (s *stubGateNotifier) PublishSessionEvent(event string, _ *models.ParkingSession) {
	s.events = append(s.events, event)
}

func TestBillableMinutesFloorsPartialMinutes(t *testing.T) {
	entered := time.UnixMilli(1000)
	exited := time.UnixMilli(601000)

	minutes, err := billableMinutes(entered, exited)
	if err != nil {
		t.Fatalf("billableMinutes: %v", err)
	}
	if minutes != 10 {
		t.Fatalf("expected 10 minutes, got %d", minutes)
	}

	// 59 seconds short of the next minute must not be billed
	minutes, err = billableMinutes(entered, exited.Add(59*time.Second))
	if err != nil {
		t.Fatalf("billableMinutes: %v", err)
	}
	if minutes != 10 {
		t.Fatalf("expected partial minute to be dropped, got %d", minutes)
	}
}

func TestBillableMinutesRejectsClockSkew(t *testing.T) {
	entered := time.UnixMilli(601000)
	exited := time.UnixMilli(1000)

	if _, err := billableMinutes(entered, exited); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for exit before entry, got %v", err)
	}
}

func TestSessionChargeRoundsToTwoDecimals(t *testing.T) {
	if got := sessionCharge(90, 100); got != 150.00 {
		t.Fatalf("expected 150.00 for 90 minutes at 100/h, got %.2f", got)
	}
	if got := sessionCharge(37, 100); got != 61.67 {
		t.Fatalf("expected 61.67 for 37 minutes at 100/h, got %.2f", got)
	}
	if got := sessionCharge(0, 100); got != 0 {
		t.Fatalf("expected zero charge for zero minutes, got %.2f", got)
	}
}

func TestBuildExitUpdateRefusesSecondExit(t *testing.T) {
	reservation := buildReservation(1, 100)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, status := range []string{models.SessionStatusPaymentPending, models.SessionStatusExited} {
		session := buildSession(7, status, now.Add(-time.Hour))
		if _, err := buildExitUpdate(session, reservation, now); !errors.Is(err, ErrAlreadyExited) {
			t.Fatalf("status %q: expected ErrAlreadyExited, got %v", status, err)
		}
	}
}

func TestBuildExitUpdateRequiresResolvableSpot(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	session := buildSession(7, models.SessionStatusActive, now.Add(-time.Hour))

	if _, err := buildExitUpdate(session, nil, now); !errors.Is(err, ErrDependencyMissing) {
		t.Fatalf("expected ErrDependencyMissing without reservation, got %v", err)
	}

	spotless := &models.Reservation{ID: 1, CustomerID: 2, SpotID: 3}
	if _, err := buildExitUpdate(session, spotless, now); !errors.Is(err, ErrDependencyMissing) {
		t.Fatalf("expected ErrDependencyMissing without spot, got %v", err)
	}
}

func TestBuildExitUpdateComputesDerivedFields(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	session := buildSession(7, models.SessionStatusActive, now.Add(-90*time.Minute))

	update, err := buildExitUpdate(session, buildReservation(1, 100), now)
	if err != nil {
		t.Fatalf("buildExitUpdate: %v", err)
	}
	if update.durationMinutes != 90 {
		t.Fatalf("expected 90 minutes, got %d", update.durationMinutes)
	}
	if update.totalAmount != 150.00 {
		t.Fatalf("expected 150.00, got %.2f", update.totalAmount)
	}
	if !update.exitedTime.Equal(now) {
		t.Fatalf("expected exit time %v, got %v", now, update.exitedTime)
	}
}

func TestVerifyPaymentAndReleaseRejectsMissingPayment(t *testing.T) {
	sessions := &stubSessionStore{
		session: buildSession(5, models.SessionStatusPaymentPending, time.Now().UTC().Add(-time.Hour)),
	}
	service := &ParkingService{
		sessions: sessions,
		payments: &stubPaymentStore{getErr: pgx.ErrNoRows},
	}

	if _, err := service.VerifyPaymentAndRelease(context.Background(), 5); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified without payment, got %v", err)
	}
}

func TestVerifyPaymentAndReleaseRejectsFailedPayment(t *testing.T) {
	sessions := &stubSessionStore{
		session: buildSession(5, models.SessionStatusPaymentPending, time.Now().UTC().Add(-time.Hour)),
	}
	service := &ParkingService{
		sessions: sessions,
		payments: &stubPaymentStore{payment: &models.Payment{SessionID: 5, Status: models.PaymentStatusFailed}},
	}

	if _, err := service.VerifyPaymentAndRelease(context.Background(), 5); !errors.Is(err, ErrPaymentNotVerified) {
		t.Fatalf("expected ErrPaymentNotVerified for failed payment, got %v", err)
	}
}

func TestVerifyPaymentAndReleaseMovesToExited(t *testing.T) {
	pending := buildSession(5, models.SessionStatusPaymentPending, time.Now().UTC().Add(-time.Hour))
	released := *pending
	released.Status = models.SessionStatusExited

	sessions := &stubSessionStore{session: pending, updateResult: &released}
	notifier := &stubGateNotifier{}
	service := &ParkingService{
		sessions: sessions,
		payments: &stubPaymentStore{payment: &models.Payment{SessionID: 5, Status: models.PaymentStatusSuccessful}},
		notifier: notifier,
	}

	detail, err := service.VerifyPaymentAndRelease(context.Background(), 5)
	if err != nil {
		t.Fatalf("VerifyPaymentAndRelease: %v", err)
	}
	if detail.Status != models.SessionStatusExited {
		t.Fatalf("expected exited session, got %q", detail.Status)
	}
	if sessions.lastCurrentStatus != models.SessionStatusPaymentPending || sessions.lastNextStatus != models.SessionStatusExited {
		t.Fatalf("expected payment_pending -> exited transition, got %q -> %q", sessions.lastCurrentStatus, sessions.lastNextStatus)
	}
	if len(notifier.events) != 1 || notifier.events[0] != EventVehicleReleased {
		t.Fatalf("expected a single %s event, got %v", EventVehicleReleased, notifier.events)
	}
}

func TestVerifyPaymentAndReleaseNeverSkipsPaymentPending(t *testing.T) {
	sessions := &stubSessionStore{
		session: buildSession(5, models.SessionStatusActive, time.Now().UTC()),
	}
	service := &ParkingService{
		sessions: sessions,
		payments: &stubPaymentStore{payment: &models.Payment{SessionID: 5, Status: models.PaymentStatusSuccessful}},
	}

	if _, err := service.VerifyPaymentAndRelease(context.Background(), 5); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition for active session, got %v", err)
	}
}

func TestVerifyPaymentAndReleaseIsNotReentrant(t *testing.T) {
	sessions := &stubSessionStore{
		session: buildSession(5, models.SessionStatusExited, time.Now().UTC().Add(-time.Hour)),
	}
	service := &ParkingService{
		sessions: sessions,
		payments: &stubPaymentStore{payment: &models.Payment{SessionID: 5, Status: models.PaymentStatusSuccessful}},
	}

	if _, err := service.VerifyPaymentAndRelease(context.Background(), 5); !errors.Is(err, ErrAlreadyExited) {
		t.Fatalf("expected ErrAlreadyExited for released session, got %v", err)
	}
}

func TestRecordEntryRequiresExistingReservation(t *testing.T) {
	service := &ParkingService{
		sessions:     &stubSessionStore{},
		reservations: &stubReservationReader{err: pgx.ErrNoRows},
	}

	if _, err := service.RecordEntry(context.Background(), 1, 42); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestRecordEntryCreatesActiveSession(t *testing.T) {
	created := buildSession(9, models.SessionStatusActive, time.Now().UTC())
	notifier := &stubGateNotifier{}
	service := &ParkingService{
		sessions:     &stubSessionStore{createResult: created},
		reservations: &stubReservationReader{reservation: buildReservation(42, 80)},
		notifier:     notifier,
	}

	detail, err := service.RecordEntry(context.Background(), 1, 42)
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}
	if detail.Status != models.SessionStatusActive {
		t.Fatalf("expected active session, got %q", detail.Status)
	}
	if detail.ExitedTime != nil || detail.DurationMinutes != nil || detail.TotalAmount != nil {
		t.Fatalf("expected derived fields unset at entry, got %+v", detail.ParkingSession)
	}
	if detail.Reservation == nil || detail.Reservation.ID != 42 {
		t.Fatalf("expected reservation 42 on detail, got %+v", detail.Reservation)
	}
	if len(notifier.events) != 1 || notifier.events[0] != EventVehicleEntered {
		t.Fatalf("expected a single %s event, got %v", EventVehicleEntered, notifier.events)
	}
}

func TestRecordPaymentResultTakesAmountFromSession(t *testing.T) {
	amount := 61.67
	session := buildSession(5, models.SessionStatusPaymentPending, time.Now().UTC().Add(-time.Hour))
	session.TotalAmount = &amount

	payments := &stubPaymentStore{
		createResult: &models.Payment{SessionID: 5, Amount: amount, Status: models.PaymentStatusSuccessful},
	}
	service := &ParkingService{
		sessions: &stubSessionStore{session: session},
		payments: payments,
	}

	if _, err := service.RecordPaymentResult(context.Background(), 5, "Successful"); err != nil {
		t.Fatalf("RecordPaymentResult: %v", err)
	}
	if payments.created == nil || payments.created.Amount != amount {
		t.Fatalf("expected payment amount %.2f, got %+v", amount, payments.created)
	}
	if payments.created.Status != models.PaymentStatusSuccessful {
		t.Fatalf("expected normalized successful status, got %q", payments.created.Status)
	}
}

func TestRecordPaymentResultRejectsUnknownStatus(t *testing.T) {
	service := &ParkingService{sessions: &stubSessionStore{}, payments: &stubPaymentStore{}}

	if _, err := service.RecordPaymentResult(context.Background(), 5, "maybe"); !errors.Is(err, ErrInvalidPaymentStatus) {
		t.Fatalf("expected ErrInvalidPaymentStatus, got %v", err)
	}
}

func TestRecordPaymentResultRequiresComputedCharge(t *testing.T) {
	service := &ParkingService{
		sessions: &stubSessionStore{session: buildSession(5, models.SessionStatusActive, time.Now().UTC())},
		payments: &stubPaymentStore{},
	}

	if _, err := service.RecordPaymentResult(context.Background(), 5, "successful"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition before exit, got %v", err)
	}
}

func TestDeleteSessionMapsMissingRow(t *testing.T) {
	service := &ParkingService{sessions: &stubSessionStore{deleteErr: pgx.ErrNoRows}}

	if err := service.DeleteSession(context.Background(), 404); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListSessionsAttachesLatestPayment(t *testing.T) {
	first := buildSession(1, models.SessionStatusPaymentPending, time.Now().UTC().Add(-2*time.Hour))
	second := buildSession(2, models.SessionStatusActive, time.Now().UTC())
	service := &ParkingService{
		sessions: &stubSessionStore{sessions: []models.ParkingSession{*first, *second}},
		payments: &stubPaymentStore{bySession: map[int64]models.Payment{
			1: {ID: 10, SessionID: 1, Status: models.PaymentStatusSuccessful},
		}},
	}

	details, err := service.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(details))
	}
	if details[0].Payment == nil || details[0].Payment.ID != 10 {
		t.Fatalf("expected payment 10 on first session, got %+v", details[0].Payment)
	}
	if details[1].Payment != nil {
		t.Fatalf("expected no payment on second session, got %+v", details[1].Payment)
	}
}

func buildSession(id int64, status string, enteredTime time.Time) *models.ParkingSession {
	return &models.ParkingSession{
		ID:            id,
		ReservationID: 42,
		AdminID:       1,
		EnteredTime:   enteredTime,
		Status:        status,
	}
}

func buildReservation(id int64, pricePerHour float64) *models.Reservation {
	return &models.Reservation{
		ID:         id,
		CustomerID: 2,
		SpotID:     3,
		Spot: &models.ParkingSpot{
			ID:           3,
			Name:         "Lot A1",
			PricePerHour: pricePerHour,
		},
	}
}
