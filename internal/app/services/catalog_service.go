package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/helpers"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
	"github.com/tustunkok/pc-link/internal/pkg/validation"
)

// NewSemester describes a semester to create together with the courses
// offered in it
type NewSemester struct {
	YearInterval     string
	PeriodName       string
	PeriodOrderValue int
	Active           bool
	OfferedCourses   []string
}

// CatalogService defines the interface for reading the catalog
type CatalogService interface {
	ListStudents(ctx context.Context, activeOnly bool, page, size int) (*dto.PaginatedResponse, error)
	ListProgramOutcomes(ctx context.Context) ([]models.ProgramOutcome, error)
	ListResults(ctx context.Context, filter models.ResultFilter, page, size int) (*dto.PaginatedResponse, error)
	ListSemesters(ctx context.Context, activeOnly bool) ([]models.Semester, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListCurricula(ctx context.Context) ([]models.Curriculum, error)
	CreateSemester(ctx context.Context, in NewSemester) (*models.Semester, error)
	SetSemesterActive(ctx context.Context, id int64, active bool) error
}

// catalogServiceImpl implements CatalogService
type catalogServiceImpl struct {
	studentRepo    IStudentRepository
	outcomeRepo    IProgramOutcomeRepository
	resultRepo     IOutcomeResultRepository
	semesterRepo   ISemesterRepository
	courseRepo     ICourseRepository
	curriculumRepo ICurriculumRepository
	log            zerolog.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	studentRepo IStudentRepository,
	outcomeRepo IProgramOutcomeRepository,
	resultRepo IOutcomeResultRepository,
	semesterRepo ISemesterRepository,
	courseRepo ICourseRepository,
	curriculumRepo ICurriculumRepository,
) CatalogService {
	return &catalogServiceImpl{
		studentRepo:    studentRepo,
		outcomeRepo:    outcomeRepo,
		resultRepo:     resultRepo,
		semesterRepo:   semesterRepo,
		courseRepo:     courseRepo,
		curriculumRepo: curriculumRepo,
		log:            logger.Component("catalog"),
	}
}

// ListStudents returns a page of students ordered by number
func (s *catalogServiceImpl) ListStudents(ctx context.Context, activeOnly bool, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	students, total, err := s.studentRepo.List(ctx, activeOnly, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	return &dto.PaginatedResponse{
		Items:      nonNil(students),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// ListProgramOutcomes returns every program outcome ordered by code
func (s *catalogServiceImpl) ListProgramOutcomes(ctx context.Context) ([]models.ProgramOutcome, error) {
	outcomes, err := s.outcomeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing program outcomes: %w", err)
	}
	return nonNil(outcomes), nil
}

// ListResults returns a page of stored results matching filter
func (s *catalogServiceImpl) ListResults(ctx context.Context, filter models.ResultFilter, page, size int) (*dto.PaginatedResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	results, total, err := s.resultRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing results: %w", err)
	}
	return &dto.PaginatedResponse{
		Items:      nonNil(results),
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// ListSemesters returns semesters newest first
func (s *catalogServiceImpl) ListSemesters(ctx context.Context, activeOnly bool) ([]models.Semester, error) {
	semesters, err := s.semesterRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing semesters: %w", err)
	}
	return nonNil(semesters), nil
}

// ListCourses returns every course with its program outcomes
func (s *catalogServiceImpl) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	return nonNil(courses), nil
}

// ListCurricula returns every curriculum with its course ids
func (s *catalogServiceImpl) ListCurricula(ctx context.Context) ([]models.Curriculum, error) {
	curricula, err := s.curriculumRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing curricula: %w", err)
	}
	return nonNil(curricula), nil
}

// CreateSemester adds a semester and records which courses it offers
func (s *catalogServiceImpl) CreateSemester(ctx context.Context, in NewSemester) (*models.Semester, error) {
	if !validation.ValidYearInterval(in.YearInterval) {
		return nil, apperrors.NewBadRequestError(
			fmt.Sprintf("Year interval %q must look like 2020-2021.", in.YearInterval))
	}
	if err := validation.NewStringValidation("period name", in.PeriodName).
		WithMaxLength(50).
		Validate(); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	courseIDs := make([]int64, 0, len(in.OfferedCourses))
	for _, code := range in.OfferedCourses {
		c, err := s.courseRepo.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, apperrors.ErrCourseNotFound) {
				return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("Course %s does not exist.", code))
			}
			return nil, err
		}
		courseIDs = append(courseIDs, c.ID)
	}

	semester := &models.Semester{
		YearInterval:     in.YearInterval,
		PeriodName:       in.PeriodName,
		PeriodOrderValue: in.PeriodOrderValue,
		Active:           in.Active,
	}
	id, err := s.semesterRepo.Create(ctx, semester)
	if err != nil {
		return nil, err
	}
	semester.ID = id

	if len(courseIDs) > 0 {
		if err := s.courseRepo.SetOffered(ctx, id, courseIDs); err != nil {
			return nil, fmt.Errorf("error recording offered courses: %w", err)
		}
	}

	s.log.Info().
		Str("semester", semester.Label()).
		Int("offered_courses", len(courseIDs)).
		Bool("active", semester.Active).
		Msg("Semester created")
	return semester, nil
}

// SetSemesterActive opens or closes a semester for uploads
func (s *catalogServiceImpl) SetSemesterActive(ctx context.Context, id int64, active bool) error {
	if err := s.semesterRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.log.Info().Int64("semester_id", id).Bool("active", active).Msg("Semester availability changed")
	return nil
}

// nonNil keeps empty listings encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
