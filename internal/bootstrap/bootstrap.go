package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/tustunkok/pc-link/internal/app/controllers"
	appMigrations "github.com/tustunkok/pc-link/internal/app/migrations"
	"github.com/tustunkok/pc-link/internal/app/models"
	appRepos "github.com/tustunkok/pc-link/internal/app/repositories"
	appRoutes "github.com/tustunkok/pc-link/internal/app/routes"
	appServices "github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/config"
	"github.com/tustunkok/pc-link/internal/db"
	"github.com/tustunkok/pc-link/internal/jobs"
	appMiddleware "github.com/tustunkok/pc-link/internal/middleware"
	pkgAuth "github.com/tustunkok/pc-link/internal/pkg/auth"
	"github.com/tustunkok/pc-link/internal/pkg/filestorage"
	"github.com/tustunkok/pc-link/internal/pkg/locker"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
	"github.com/tustunkok/pc-link/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	JWTService     *pkgAuth.JWTService
	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	Pool           *jobs.Pool
	Logger         zerolog.Logger

	closers []func() error
}

// Close releases connections held by the dependencies, such as the Redis
// client of the upload locker
func (d *Dependencies) Close() error {
	var firstErr error
	for _, c := range d.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	format := strings.ToLower(cfg.Logging.Format)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: format == "text" || format == "pretty",
	})

	lgr := log.Logger
	lgr.Info().Stringer("logLevel", logLevel).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects to PostgreSQL, applies pending migrations and
// creates the default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	dbPool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	if err := Migrate(ctx, dbPool, cfg.Database.MigrationsPath, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}

	repos := appRepos.NewRepositories(dbPool)
	if err := seed.CreateDefaultData(ctx, repos.CurriculumRepository, repos.StudentRepository, lgr); err != nil {
		// Startup continues; reports without a curriculum still work
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// Migrate applies the pending migrations found in dir
func Migrate(ctx context.Context, dbPool *pgxpool.Pool, dir string, lgr zerolog.Logger) error {
	lgr.Info().Str("path", dir).Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool).MigrateFromDirectory(ctx, dir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// BuildServices creates the repositories and services shared by the HTTP
// server and the admin CLI
func BuildServices(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(dbPool)

	storage, err := filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	var uploadLocker locker.Locker = locker.NewMemory()
	if cfg.Redis.Addr != "" {
		redisLocker, err := locker.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LockTTL)
		if err != nil {
			lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
			return nil, fmt.Errorf("failed to initialize upload locker: %w", err)
		}
		uploadLocker = redisLocker
		deps.closers = append(deps.closers, redisLocker.Close)
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Upload locks are shared through Redis")
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  cfg.JWT.AccessTokenExpiration,
		RefreshTokenExp: cfg.JWT.RefreshTokenExpiration,
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Services = appServices.NewServices(appServices.Dependencies{
		Repos:   deps.Repos,
		JWT:     deps.JWTService,
		Storage: storage,
		Locker:  uploadLocker,
		Policy:  models.SemesterPolicy(cfg.Outcomes.SemesterPolicy),
	})
	return deps, nil
}

// BuildDependencies initializes services, the report worker pool and the
// controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps, err := BuildServices(ctx, cfg, dbPool, lgr)
	if err != nil {
		return nil, err
	}
	svc := deps.Services

	registry := jobs.NewRegistry()
	if err := jobs.RegisterReportHandlers(registry, svc.ReportBuilder); err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("failed to register report handlers: %w", err)
	}
	deps.Pool = jobs.NewPool(deps.Repos.ReportTaskRepository, registry, jobs.Config{
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		MaxAttempts:  cfg.Worker.MaxAttempts,
		StaleAfter:   cfg.Worker.StaleAfter,
		RetryDelay:   cfg.Worker.RetryDelay,
		Retention:    cfg.Worker.Retention,
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, svc.Authorization)

	maxBytes := cfg.MaxUploadBytes()
	deps.Controllers = appRoutes.Controllers{
		Auth:    appControllers.NewAuthController(svc.Auth, logger.Component("auth")),
		Upload:  appControllers.NewUploadController(svc.Upload, svc.Exemption, maxBytes, logger.Component("uploads")),
		Import:  appControllers.NewImportController(svc.Import, maxBytes, logger.Component("imports")),
		File:    appControllers.NewFileController(svc.File, svc.Maintenance, logger.Component("files")),
		Report:  appControllers.NewReportController(svc.Report, logger.Component("reports")),
		Catalog: appControllers.NewCatalogController(svc.Catalog, logger.Component("catalog")),
		Setting: appControllers.NewSettingController(svc.Setting, logger.Component("settings")),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	appRoutes.SetupSwagger(router, "")
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}
