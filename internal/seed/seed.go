package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models"
)

// CurriculumStore creates curricula
type CurriculumStore interface {
	EnsureWithAllCourses(ctx context.Context, name string) (int64, error)
}

// StudentStore assigns curricula to students
type StudentStore interface {
	AssignCurriculum(ctx context.Context, curriculumID int64) (int64, error)
}

// CreateDefaultData makes sure the default curriculum exists, contains every
// course and is assigned to each student that has none. Running it again
// changes nothing.
func CreateDefaultData(ctx context.Context, curricula CurriculumStore, students StudentStore, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (Curriculum)...")

	id, err := curricula.EnsureWithAllCourses(ctx, models.DefaultCurriculumName)
	if err != nil {
		return fmt.Errorf("error creating default curriculum: %w", err)
	}

	assigned, err := students.AssignCurriculum(ctx, id)
	if err != nil {
		return fmt.Errorf("error assigning default curriculum: %w", err)
	}

	lgr.Info().
		Int64("curriculum_id", id).
		Int64("students_assigned", assigned).
		Msg("Default data ready")
	return nil
}
