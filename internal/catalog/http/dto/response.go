// Package dto provides data transfer objects for the catalog HTTP layer.
package dto

import (
	"time"

	"github.com/google/uuid"
)

// ProgramResponse represents the API response for a program
type ProgramResponse struct {
	ID               uuid.UUID `json:"id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProgramListResponse wraps a list of programs
type ProgramListResponse struct {
	Programs []ProgramResponse `json:"programs"`
}

// SessionResponse represents the API response for a session, including the
// derived seat counts.
type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	ProgramID uuid.UUID `json:"program_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
	Capacity  int       `json:"capacity"`
	Location  string    `json:"location"`
	Taken     int       `json:"taken"`
	Available int       `json:"available"`
}

// SessionListResponse wraps a list of sessions
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// AvailabilityResponse represents the API response for a session's seat summary
type AvailabilityResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Capacity  int       `json:"capacity"`
	Taken     int       `json:"taken"`
	Available int       `json:"available"`
}
