package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/ingest"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// ExemptionService defines the interface for exemption uploads
type ExemptionService interface {
	UploadExemptions(ctx context.Context, data []byte) (*dto.ExemptionResponse, error)
}

// exemptionServiceImpl implements ExemptionService
type exemptionServiceImpl struct {
	courseRepo   ICourseRepository
	semesterRepo ISemesterRepository
	studentRepo  IStudentRepository
	resultRepo   IOutcomeResultRepository
	log          zerolog.Logger
}

// NewExemptionService creates a new ExemptionService
func NewExemptionService(
	courseRepo ICourseRepository,
	semesterRepo ISemesterRepository,
	studentRepo IStudentRepository,
	resultRepo IOutcomeResultRepository,
) ExemptionService {
	return &exemptionServiceImpl{
		courseRepo:   courseRepo,
		semesterRepo: semesterRepo,
		studentRepo:  studentRepo,
		resultRepo:   resultRepo,
		log:          logger.Component("exemption"),
	}
}

// UploadExemptions marks every listed student as satisfying all outcomes of
// the listed course in the listed semester. Every row must resolve before
// anything is written.
func (s *exemptionServiceImpl) UploadExemptions(ctx context.Context, data []byte) (*dto.ExemptionResponse, error) {
	rows, err := ingest.ParseExemptions(data)
	if err != nil {
		return nil, err
	}

	semesters := make(map[string]*models.Semester)
	courses := make(map[string]*models.Course)
	students := make(map[string]int64)

	var writes []models.ResultWrite
	for _, row := range rows {
		label := row.YearInterval + " " + row.PeriodName
		semester, ok := semesters[label]
		if !ok {
			semester, err = s.semesterRepo.GetByLabel(ctx, row.YearInterval, row.PeriodName)
			if err != nil {
				return nil, lineLookupError(err, apperrors.ErrSemesterNotFound, row.Line, "semester", label)
			}
			semesters[label] = semester
		}

		course, ok := courses[row.CourseCode]
		if !ok {
			course, err = s.courseRepo.GetByCode(ctx, row.CourseCode)
			if err != nil {
				return nil, lineLookupError(err, apperrors.ErrCourseNotFound, row.Line, "course", row.CourseCode)
			}
			courses[row.CourseCode] = course
		}

		studentID, ok := students[row.StudentNo]
		if !ok {
			student, err := s.studentRepo.GetByNo(ctx, row.StudentNo)
			if err != nil {
				return nil, lineLookupError(err, apperrors.ErrStudentNotFound, row.Line, "student", row.StudentNo)
			}
			studentID = student.ID
			students[row.StudentNo] = studentID
		}

		for _, po := range course.ProgramOutcomes {
			writes = append(writes, models.ResultWrite{
				StudentID:        studentID,
				CourseID:         course.ID,
				ProgramOutcomeID: po.ID,
				SemesterID:       semester.ID,
				Satisfaction:     1,
			})
		}
	}

	resp := &dto.ExemptionResponse{Rows: len(rows)}
	if len(writes) == 0 {
		return resp, nil
	}

	summary, err := s.resultRepo.UpsertBatch(ctx, writes, models.PolicyAccumulate)
	if err != nil {
		return nil, fmt.Errorf("error writing exemptions: %w", err)
	}
	resp.Created = summary.Created
	resp.Updated = summary.Updated

	s.log.Info().
		Int("rows", resp.Rows).
		Int("created", resp.Created).
		Int("updated", resp.Updated).
		Msg("Exemptions applied")

	return resp, nil
}

// lineLookupError turns a missing catalog entry into a not found error that
// names the file line
func lineLookupError(err, notFound error, line int, what, value string) error {
	if errors.Is(err, notFound) {
		return apperrors.NewResourceNotFoundError(fmt.Sprintf("Line %d: %s %s does not exist.", line, what, value))
	}
	return fmt.Errorf("error resolving %s on line %d: %w", what, line, err)
}
