// Package domain defines the core catalog entities: organizations, the
// programs they run, and the scheduled sessions people enroll into.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/errors"
)

// Organization represents a club or company that runs programs.
type Organization struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Program represents an activity an organization offers (e.g., "U12 Basketball").
// OrganizationName is a read-side projection filled by list/get queries.
type Program struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	OrganizationName string
	Name             string
	Description      string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Session is a scheduled occurrence of a program with a bounded number of
// seats. Taken and Available are derived projections (count of non-cancelled
// registrations); they are filled by annotated queries, never stored.
type Session struct {
	ID        uuid.UUID
	ProgramID uuid.UUID
	StartAt   time.Time
	EndAt     time.Time
	Capacity  int
	Location  string
	Taken     int
	Available int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFuture reports whether the session has not started yet at the given instant.
// Admission is only allowed for future sessions.
func (s *Session) IsFuture(now time.Time) bool {
	return s.StartAt.After(now)
}

// Availability is the seat summary exposed by the availability query.
type Availability struct {
	SessionID uuid.UUID `json:"session_id"`
	Capacity  int       `json:"capacity"`
	Taken     int       `json:"taken"`
	Available int       `json:"available"`
}

// Domain-specific errors for catalog operations.
var (
	// ErrProgramNotFound indicates the requested program does not exist or is inactive.
	ErrProgramNotFound = errors.Wrap(errors.ErrNotFound, "program not found")

	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrOrganizationExists indicates an organization with the same name already exists.
	ErrOrganizationExists = errors.Wrap(errors.ErrConflict, "organization already exists")

	// ErrProgramExists indicates the organization already has a program with that name.
	ErrProgramExists = errors.Wrap(errors.ErrConflict, "program already exists")

	// ErrInvalidCapacity indicates a session capacity below one.
	ErrInvalidCapacity = errors.Wrap(errors.ErrInvalidInput, "capacity must be at least 1")
)
