package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/app"
	catalogDomain "github.com/allisson/playbook/internal/catalog/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

const seedOrganizationName = "Riverside Community Center"

// RunSeed loads a sample organization with programs and upcoming sessions so
// the API has something to serve in local development. Running it twice is a
// no-op: if the organization already exists nothing is inserted.
//
// Requirements: Database must be migrated and accessible.
func RunSeed(
	ctx context.Context,
	seeder app.CatalogSeeder,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("seeding catalog data")

	existing, err := seeder.GetOrganizationByName(ctx, seedOrganizationName)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check for existing organization: %w", err)
	}
	if existing != nil {
		if format == "json" {
			writeJSON(writer, map[string]any{
				"organization_id": existing.ID.String(),
				"seeded":          false,
			})
		} else {
			_, _ = fmt.Fprintf(writer, "Catalog already seeded (organization %s)\n", existing.ID.String())
		}
		return nil
	}

	org := &catalogDomain.Organization{
		ID:    uuid.Must(uuid.NewV7()),
		Name:  seedOrganizationName,
		Email: "contact@riverside.example.com",
		Phone: "+1-555-0100",
	}
	if err := seeder.CreateOrganization(ctx, org); err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	programs := []struct {
		name        string
		description string
		capacity    int
		location    string
	}{
		{
			name:        "U12 Basketball",
			description: "Weekly basketball practice for kids under 12",
			capacity:    12,
			location:    "Court 1",
		},
		{
			name:        "Adult Yoga",
			description: "Evening yoga classes for all skill levels",
			capacity:    20,
			location:    "Studio B",
		},
	}

	sessionCount := 0
	for _, p := range programs {
		program := &catalogDomain.Program{
			ID:             uuid.Must(uuid.NewV7()),
			OrganizationID: org.ID,
			Name:           p.name,
			Description:    p.description,
			IsActive:       true,
		}
		if err := seeder.CreateProgram(ctx, program); err != nil {
			return fmt.Errorf("failed to create program %q: %w", p.name, err)
		}

		// Two upcoming sessions per program, a week apart.
		for week := 1; week <= 2; week++ {
			startAt := time.Now().Add(time.Duration(week) * 7 * 24 * time.Hour).Truncate(time.Hour)
			session := &catalogDomain.Session{
				ID:        uuid.Must(uuid.NewV7()),
				ProgramID: program.ID,
				StartAt:   startAt,
				EndAt:     startAt.Add(2 * time.Hour),
				Capacity:  p.capacity,
				Location:  p.location,
			}
			if err := seeder.CreateSession(ctx, session); err != nil {
				return fmt.Errorf("failed to create session for %q: %w", p.name, err)
			}
			sessionCount++
		}
	}

	if format == "json" {
		writeJSON(writer, map[string]any{
			"organization_id": org.ID.String(),
			"programs":        len(programs),
			"sessions":        sessionCount,
			"seeded":          true,
		})
	} else {
		_, _ = fmt.Fprintf(writer, "Seeded organization %s with %d program(s) and %d session(s)\n",
			org.ID.String(), len(programs), sessionCount)
	}

	logger.Info("catalog seeded",
		slog.String("organization_id", org.ID.String()),
		slog.Int("programs", len(programs)),
		slog.Int("sessions", sessionCount),
	)

	return nil
}
