// Package domain defines the enrollment entities: registrations holding a
// seat in a session, and the payments that confirm them.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/playbook/internal/errors"
)

// RegistrationStatus represents the lifecycle state of a registration.
type RegistrationStatus string

const (
	// RegistrationStatusPending means the seat is held but not yet paid for.
	RegistrationStatusPending RegistrationStatus = "PENDING"
	// RegistrationStatusConfirmed means a successful payment confirmed the seat.
	RegistrationStatusConfirmed RegistrationStatus = "CONFIRMED"
	// RegistrationStatusCancelled means the seat was released.
	RegistrationStatusCancelled RegistrationStatus = "CANCELLED"
)

// PaymentStatus represents the lifecycle state of a payment attempt.
type PaymentStatus string

const (
	// PaymentStatusInitiated means the charge was started but not settled.
	PaymentStatusInitiated PaymentStatus = "INITIATED"
	// PaymentStatusPaid means the charge settled successfully.
	PaymentStatusPaid PaymentStatus = "PAID"
	// PaymentStatusFailed means the charge was declined or errored.
	PaymentStatusFailed PaymentStatus = "FAILED"
	// PaymentStatusRefunded means a settled charge was returned.
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// Registration holds one person's seat in a session. A row exists for every
// admission attempt that passed the gate, whatever its current status;
// the (SessionID, Email) pair is unique across all statuses.
type Registration struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	FullName  string
	Email     string
	Status    RegistrationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HoldsSeat reports whether the registration currently consumes capacity.
func (r *Registration) HoldsSeat() bool {
	return r.Status != RegistrationStatusCancelled
}

// Payment records one charge attempt against a registration.
type Payment struct {
	ID             uuid.UUID
	RegistrationID uuid.UUID
	Amount         decimal.Decimal
	Status         PaymentStatus
	Provider       string
	Reference      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeEmail lowercases and trims an email for the uniqueness check.
// "Ada@Example.COM " and "ada@example.com" are the same registrant.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeFullName trims and collapses internal whitespace runs.
func NormalizeFullName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Domain-specific errors for enrollment operations.
var (
	// ErrRegistrationNotFound indicates the requested registration does not exist.
	ErrRegistrationNotFound = errors.Wrap(errors.ErrNotFound, "registration not found")

	// ErrSessionClosed indicates the session has already started.
	ErrSessionClosed = errors.Wrap(errors.ErrRejected, "session has already started")

	// ErrDuplicateRegistration indicates this email already registered for the session.
	ErrDuplicateRegistration = errors.Wrap(errors.ErrRejected, "email already registered for this session")

	// ErrSessionFull indicates no seats remain in the session.
	ErrSessionFull = errors.Wrap(errors.ErrRejected, "session is full")

	// ErrRegistrationCancelled indicates the operation needs a non-cancelled registration.
	ErrRegistrationCancelled = errors.Wrap(errors.ErrRejected, "registration is cancelled")

	// ErrPaymentFailed indicates the payment provider declined the charge.
	ErrPaymentFailed = errors.Wrap(errors.ErrRejected, "payment failed")
)
