package models

import "time"

// Session statuses. A session only ever moves forward:
// active -> payment_pending -> exited.
const (
	SessionStatusActive         = "active"
	SessionStatusPaymentPending = "payment_pending"
	SessionStatusExited         = "exited"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
)

type ParkingSession struct {
	ID              int64      `json:"id"`
	ReservationID   int64      `json:"reservation_id"`
	AdminID         int64      `json:"admin_id"`
	EnteredTime     time.Time  `json:"entered_time"`
	ExitedTime      *time.Time `json:"exited_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	TotalAmount     *float64   `json:"total_amount"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Payment struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetail struct {
	ParkingSession
	Reservation *Reservation `json:"reservation,omitempty"`
	Payment     *Payment     `json:"payment,omitempty"`
}
