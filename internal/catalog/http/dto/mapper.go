// Package dto provides data transfer objects for the catalog HTTP layer.
package dto

import (
	"github.com/allisson/playbook/internal/catalog/domain"
)

// ToProgramResponse converts a domain Program model to a ProgramResponse DTO
func ToProgramResponse(program *domain.Program) ProgramResponse {
	return ProgramResponse{
		ID:               program.ID,
		OrganizationID:   program.OrganizationID,
		OrganizationName: program.OrganizationName,
		Name:             program.Name,
		Description:      program.Description,
		IsActive:         program.IsActive,
		CreatedAt:        program.CreatedAt,
		UpdatedAt:        program.UpdatedAt,
	}
}

// ToProgramListResponse converts domain Programs to a ProgramListResponse DTO
func ToProgramListResponse(programs []*domain.Program) ProgramListResponse {
	out := ProgramListResponse{Programs: make([]ProgramResponse, 0, len(programs))}
	for _, program := range programs {
		out.Programs = append(out.Programs, ToProgramResponse(program))
	}
	return out
}

// ToSessionResponse converts a domain Session model to a SessionResponse DTO
func ToSessionResponse(session *domain.Session) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		ProgramID: session.ProgramID,
		StartAt:   session.StartAt,
		EndAt:     session.EndAt,
		Capacity:  session.Capacity,
		Location:  session.Location,
		Taken:     session.Taken,
		Available: session.Available,
	}
}

// ToSessionListResponse converts domain Sessions to a SessionListResponse DTO
func ToSessionListResponse(sessions []*domain.Session) SessionListResponse {
	out := SessionListResponse{Sessions: make([]SessionResponse, 0, len(sessions))}
	for _, session := range sessions {
		out.Sessions = append(out.Sessions, ToSessionResponse(session))
	}
	return out
}

// ToAvailabilityResponse converts a domain Availability to an AvailabilityResponse DTO
func ToAvailabilityResponse(availability *domain.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		SessionID: availability.SessionID,
		Capacity:  availability.Capacity,
		Taken:     availability.Taken,
		Available: availability.Available,
	}
}
