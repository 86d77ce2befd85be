package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
	"github.com/tustunkok/pc-link/internal/pkg/helpers"
)

// CatalogController exposes students, outcomes, semesters, courses and
// curricula
type CatalogController struct {
	catalogService services.CatalogService
	logger         zerolog.Logger
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService, logger zerolog.Logger) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListStudents returns a page of students
// @Summary List students
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only students who have not graduated"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Student}}
// @Router /students [get]
func (c *CatalogController) ListStudents(ctx *gin.Context) {
	var q dto.ActiveFilter
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	students, err := c.catalogService.ListStudents(ctx.Request.Context(), q.Active, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(students))
}

// ListProgramOutcomes returns every program outcome
// @Summary List program outcomes
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ProgramOutcome}
// @Router /program-outcomes [get]
func (c *CatalogController) ListProgramOutcomes(ctx *gin.Context) {
	outcomes, err := c.catalogService.ListProgramOutcomes(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(outcomes))
}

// ListResults returns a page of program outcome results
// @Summary List program outcome results
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param student_id query int false "Student ID"
// @Param program_outcome_id query int false "Program outcome ID"
// @Param semester_id query int false "Semester ID"
// @Param course_id query int false "Course ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.ProgramOutcomeResult}}
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /program-outcome-results [get]
func (c *CatalogController) ListResults(ctx *gin.Context) {
	var q dto.ResultQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	results, err := c.catalogService.ListResults(ctx.Request.Context(), models.ResultFilter{
		StudentID:        q.StudentID,
		ProgramOutcomeID: q.ProgramOutcomeID,
		SemesterID:       q.SemesterID,
		CourseID:         q.CourseID,
	}, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(results))
}

// ListSemesters returns semesters, newest first
// @Summary List semesters
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only semesters open for uploads"
// @Success 200 {object} dto.APIResponse{data=[]models.Semester}
// @Router /semesters [get]
func (c *CatalogController) ListSemesters(ctx *gin.Context) {
	var q dto.ActiveFilter
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	semesters, err := c.catalogService.ListSemesters(ctx.Request.Context(), q.Active)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(semesters))
}

// ListCourses returns every course with its program outcomes
// @Summary List courses
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /courses [get]
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	courses, err := c.catalogService.ListCourses(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(courses))
}

// ListCurricula returns every curriculum
// @Summary List curricula
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Curriculum}
// @Router /curricula [get]
func (c *CatalogController) ListCurricula(ctx *gin.Context) {
	curricula, err := c.catalogService.ListCurricula(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(curricula))
}
