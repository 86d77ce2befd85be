package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/report"
	"github.com/tustunkok/pc-link/internal/app/repositories"
)

// Repository contracts used by the services. The concrete types live in the
// repositories package; tests substitute in-memory fakes.

// IUserRepository is the user store
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	SetPassword(ctx context.Context, id int64, hash string) error
}

// IStudentRepository is the student store
type IStudentRepository interface {
	IDsByNo(ctx context.Context, nos []string) (map[string]int64, error)
	GetByNo(ctx context.Context, no string) (*models.Student, error)
	List(ctx context.Context, activeOnly bool, offset, limit uint64) ([]models.Student, int64, error)
	UpsertMany(ctx context.Context, students []models.Student) (created, updated int, err error)
	AssignCurriculum(ctx context.Context, curriculumID int64) (int64, error)
}

// ICourseRepository is the course catalog store
type ICourseRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	OfferedIn(ctx context.Context, semesterID int64) ([]models.Course, error)
	ImportCatalog(ctx context.Context, in repositories.CatalogImport) (repositories.CatalogSummary, error)
	SetOffered(ctx context.Context, semesterID int64, courseIDs []int64) error
}

// IProgramOutcomeRepository is the program outcome store
type IProgramOutcomeRepository interface {
	List(ctx context.Context) ([]models.ProgramOutcome, error)
	IDsByCode(ctx context.Context, codes []string) (map[string]int64, error)
}

// ISemesterRepository is the semester store
type ISemesterRepository interface {
	Create(ctx context.Context, s *models.Semester) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Semester, error)
	GetByLabel(ctx context.Context, yearInterval, periodName string) (*models.Semester, error)
	List(ctx context.Context, activeOnly bool) ([]models.Semester, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Semester, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// ICurriculumRepository is the curriculum store
type ICurriculumRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Curriculum, error)
	GetByName(ctx context.Context, name string) (*models.Curriculum, error)
	List(ctx context.Context) ([]models.Curriculum, error)
	EnsureWithAllCourses(ctx context.Context, name string) (int64, error)
}

// IOutcomeFileRepository stores upload records
type IOutcomeFileRepository interface {
	Create(ctx context.Context, f *models.ProgramOutcomeFile) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ProgramOutcomeFile, error)
	FindByOwner(ctx context.Context, userID, semesterID, courseID int64) (*models.ProgramOutcomeFile, error)
	List(ctx context.Context, userID *int64, offset, limit uint64) ([]models.ProgramOutcomeFile, int64, error)
	ListForReplay(ctx context.Context) ([]models.ProgramOutcomeFile, error)
	UpdatePath(ctx context.Context, id int64, filePath, originalName string) error
	Delete(ctx context.Context, id int64) error
	DeleteWithResults(ctx context.Context, f *models.ProgramOutcomeFile) (int64, error)
	UploadedCourseIDs(ctx context.Context, semesterID int64) (map[int64]bool, error)
}

// IOutcomeResultRepository stores satisfaction values
type IOutcomeResultRepository interface {
	UpsertBatch(ctx context.Context, writes []models.ResultWrite, policy models.SemesterPolicy) (models.UpsertSummary, error)
	List(ctx context.Context, filter models.ResultFilter, offset, limit uint64) ([]models.ProgramOutcomeResult, int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// IReportRepository loads aggregation input
type IReportRepository interface {
	LoadInput(ctx context.Context, semesterIDs []int64, curriculumID *int64) (report.Input, error)
}

// IReportTaskRepository is the report task queue as seen by the API side
type IReportTaskRepository interface {
	Create(ctx context.Context, task *models.ReportTask) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReportTask, error)
}

// ISettingRepository stores versioned site settings
type ISettingRepository interface {
	Get(ctx context.Context, key string) (*models.SiteSetting, error)
	CompareAndSwap(ctx context.Context, key, value string, expectedVersion int64, updatedBy *int64) (*models.SiteSetting, error)
}

// Compile-time checks that the concrete repositories satisfy the contracts
var (
	_ IUserRepository           = (*repositories.UserRepository)(nil)
	_ IStudentRepository        = (*repositories.StudentRepository)(nil)
	_ ICourseRepository         = (*repositories.CourseRepository)(nil)
	_ IProgramOutcomeRepository = (*repositories.ProgramOutcomeRepository)(nil)
	_ ISemesterRepository       = (*repositories.SemesterRepository)(nil)
	_ ICurriculumRepository     = (*repositories.CurriculumRepository)(nil)
	_ IOutcomeFileRepository    = (*repositories.OutcomeFileRepository)(nil)
	_ IOutcomeResultRepository  = (*repositories.OutcomeResultRepository)(nil)
	_ IReportRepository         = (*repositories.ReportRepository)(nil)
	_ IReportTaskRepository     = (*repositories.ReportTaskRepository)(nil)
	_ ISettingRepository        = (*repositories.SettingRepository)(nil)
)
