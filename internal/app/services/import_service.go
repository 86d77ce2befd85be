package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/ingest"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/repositories"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// CatalogFiles are the three files of a course catalog import
type CatalogFiles struct {
	Outcomes       []byte
	Courses        []byte
	CourseOutcomes []byte
}

// ImportService defines the interface for bulk imports
type ImportService interface {
	ImportStudents(ctx context.Context, data []byte) (*dto.ImportResponse, error)
	ImportCatalog(ctx context.Context, files CatalogFiles) (*dto.ImportResponse, error)
}

// importServiceImpl implements ImportService
type importServiceImpl struct {
	studentRepo    IStudentRepository
	courseRepo     ICourseRepository
	curriculumRepo ICurriculumRepository
	log            zerolog.Logger
}

// NewImportService creates a new ImportService
func NewImportService(
	studentRepo IStudentRepository,
	courseRepo ICourseRepository,
	curriculumRepo ICurriculumRepository,
) ImportService {
	return &importServiceImpl{
		studentRepo:    studentRepo,
		courseRepo:     courseRepo,
		curriculumRepo: curriculumRepo,
		log:            logger.Component("import"),
	}
}

// ImportStudents upserts students by number. A blank curriculum keeps the
// student's current one.
func (s *importServiceImpl) ImportStudents(ctx context.Context, data []byte) (*dto.ImportResponse, error) {
	records, err := ingest.ParseStudents(data)
	if err != nil {
		return nil, err
	}

	curricula := make(map[string]int64)
	students := make([]models.Student, 0, len(records))
	for _, rec := range records {
		st := models.Student{
			No:                 rec.StudentNo,
			Name:               rec.Name,
			TransferStudent:    rec.Transfer,
			DoubleMajorStudent: rec.DoubleMajor,
			GraduatedOn:        rec.GraduatedOn,
		}

		if rec.Curriculum != "" {
			id, ok := curricula[rec.Curriculum]
			if !ok {
				c, err := s.curriculumRepo.GetByName(ctx, rec.Curriculum)
				if err != nil {
					if errors.Is(err, apperrors.ErrCurriculumNotFound) {
						return nil, apperrors.NewResourceNotFoundError(
							fmt.Sprintf("Curriculum %s of student %s does not exist.", rec.Curriculum, rec.StudentNo))
					}
					return nil, fmt.Errorf("error resolving curriculum: %w", err)
				}
				id = c.ID
				curricula[rec.Curriculum] = id
			}
			st.CurriculumID = &id
		}

		students = append(students, st)
	}

	created, updated, err := s.studentRepo.UpsertMany(ctx, students)
	if err != nil {
		return nil, fmt.Errorf("error importing students: %w", err)
	}

	s.log.Info().Int("created", created).Int("updated", updated).Msg("Students imported")
	return &dto.ImportResponse{StudentsCreated: created, StudentsUpdated: updated}, nil
}

// ImportCatalog merges program outcomes and courses and replaces the outcome
// set of every listed course
func (s *importServiceImpl) ImportCatalog(ctx context.Context, files CatalogFiles) (*dto.ImportResponse, error) {
	outcomes, err := ingest.ParseOutcomes(files.Outcomes)
	if err != nil {
		return nil, err
	}
	courses, err := ingest.ParseCourses(files.Courses)
	if err != nil {
		return nil, err
	}
	links, err := ingest.ParseCourseOutcomes(files.CourseOutcomes)
	if err != nil {
		return nil, err
	}

	in := repositories.CatalogImport{
		Outcomes:       make([]models.ProgramOutcome, len(outcomes)),
		Courses:        make([]models.Course, len(courses)),
		CourseOutcomes: make(map[string][]string, len(links)),
	}
	for i, o := range outcomes {
		in.Outcomes[i] = models.ProgramOutcome{Code: o.Code, Description: o.Description}
	}
	for i, c := range courses {
		in.Courses[i] = models.Course{Code: c.Code, Name: c.Name}
	}
	for _, l := range links {
		in.CourseOutcomes[l.CourseCode] = l.OutcomeCodes
	}

	summary, err := s.courseRepo.ImportCatalog(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("outcomes", summary.Outcomes).
		Int("courses", summary.Courses).
		Int("course_outcomes", summary.CourseOutcomes).
		Msg("Course catalog imported")

	return &dto.ImportResponse{
		ProgramOutcomes: summary.Outcomes,
		Courses:         summary.Courses,
		CourseOutcomes:  summary.CourseOutcomes,
	}, nil
}
