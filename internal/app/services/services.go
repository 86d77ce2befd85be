package services

import (
	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/repositories"
	pkgauth "github.com/tustunkok/pc-link/internal/pkg/auth"
	"github.com/tustunkok/pc-link/internal/pkg/filestorage"
	"github.com/tustunkok/pc-link/internal/pkg/locker"
)

// Services defined in this package:
// - AuthService: login, token refresh and accounts created from the CLI
// - UploadService: outcome file validation, storage and result writes
// - ExemptionService: exemption files
// - ImportService: student and course catalog imports
// - FileService: listing and deleting stored outcome files
// - ReportService: report task queueing, status and downloads
// - CatalogService: read access to the catalog and semester management
// - SettingService: versioned site settings
// - MaintenanceService: recalculation of every result

// Services holds all the service instances
type Services struct {
	Authorization *auth.AuthorizationService
	Auth          AuthService
	Upload        UploadService
	Exemption     ExemptionService
	Import        ImportService
	File          FileService
	Report        ReportService
	ReportBuilder *ReportBuilder
	Catalog       CatalogService
	Setting       SettingService
	Maintenance   MaintenanceService
}

// Dependencies are the shared collaborators of the services
type Dependencies struct {
	Repos   *repositories.Repositories
	JWT     *pkgauth.JWTService
	Storage filestorage.FileStorage
	Locker  locker.Locker
	Policy  models.SemesterPolicy
}

// NewServices wires every service to the repositories
func NewServices(deps Dependencies) *Services {
	r := deps.Repos
	authz := auth.NewAuthorizationService(r.UserRepository)

	upload := NewUploadService(
		r.CourseRepository,
		r.SemesterRepository,
		r.ProgramOutcomeRepository,
		r.StudentRepository,
		r.OutcomeFileRepository,
		r.OutcomeResultRepository,
		authz,
		deps.Storage,
		deps.Locker,
		deps.Policy,
	)

	return &Services{
		Authorization: authz,
		Auth:          NewAuthService(r.UserRepository, authz, deps.JWT),
		Upload:        upload,
		Exemption:     NewExemptionService(r.CourseRepository, r.SemesterRepository, r.StudentRepository, r.OutcomeResultRepository),
		Import:        NewImportService(r.StudentRepository, r.CourseRepository, r.CurriculumRepository),
		File:          NewFileService(r.OutcomeFileRepository, authz, deps.Storage, deps.Locker),
		Report: NewReportService(
			r.ReportTaskRepository,
			r.SemesterRepository,
			r.CurriculumRepository,
			r.CourseRepository,
			r.OutcomeFileRepository,
		),
		ReportBuilder: NewReportBuilder(r.ReportRepository, r.SemesterRepository),
		Catalog: NewCatalogService(
			r.StudentRepository,
			r.ProgramOutcomeRepository,
			r.OutcomeResultRepository,
			r.SemesterRepository,
			r.CourseRepository,
			r.CurriculumRepository,
		),
		Setting:     NewSettingService(r.SettingRepository),
		Maintenance: NewMaintenanceService(r.OutcomeFileRepository, r.OutcomeResultRepository, upload),
	}
}
