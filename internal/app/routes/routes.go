package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tustunkok/pc-link/internal/app/controllers"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	Upload  *controllers.UploadController
	Import  *controllers.ImportController
	File    *controllers.FileController
	Report  *controllers.ReportController
	Catalog *controllers.CatalogController
	Setting *controllers.SettingController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", c.Auth.Me)

		authenticated.POST("/uploads", c.Upload.Upload)

		files := authenticated.Group("/files")
		{
			files.GET("", c.File.ListFiles)
			files.PUT("/:id", c.Upload.Reupload)
			files.DELETE("/:id", c.File.DeleteFile)
			files.DELETE("/:id/artifact", c.File.DeleteFileOnly)
		}

		reports := authenticated.Group("/reports")
		{
			reports.POST("/export", c.Report.Export)
			reports.POST("/diff", c.Report.Diff)
			reports.GET("/course-status", c.Report.CourseStatus)
			reports.GET("/:taskId/status", c.Report.Status)
			reports.GET("/:taskId/download", c.Report.Download)
		}

		authenticated.GET("/students", c.Catalog.ListStudents)
		authenticated.GET("/program-outcomes", c.Catalog.ListProgramOutcomes)
		authenticated.GET("/program-outcome-results", c.Catalog.ListResults)
		authenticated.GET("/semesters", c.Catalog.ListSemesters)
		authenticated.GET("/courses", c.Catalog.ListCourses)
		authenticated.GET("/curricula", c.Catalog.ListCurricula)
	}

	// Staff routes
	staff := authenticated.Group("")
	staff.Use(authMiddleware.StaffRequired())
	{
		staff.POST("/exemptions", c.Upload.UploadExemptions)
		staff.POST("/imports/students", c.Import.ImportStudents)
		staff.POST("/imports/catalog", c.Import.ImportCatalog)
	}

	// Superuser routes
	admin := authenticated.Group("/admin")
	admin.Use(authMiddleware.SuperuserRequired())
	{
		admin.GET("/settings/registration", c.Setting.GetRegistration)
		admin.PUT("/settings/registration", c.Setting.UpdateRegistration)
		admin.POST("/recalculate", c.File.Recalculate)
	}
}
