package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
)

// ImportController handles bulk catalog imports
type ImportController struct {
	importService services.ImportService
	maxBytes      int64
	logger        zerolog.Logger
}

// NewImportController creates a new ImportController
func NewImportController(importService services.ImportService, maxBytes int64, logger zerolog.Logger) *ImportController {
	return &ImportController{
		importService: importService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// ImportStudents handles a student list import
// @Summary Import students
// @Description Creates or updates students from a CSV with the columns student_id, name, transfer_student, double_major_student, graduated_on and an optional curriculum
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Student CSV file"
// @Success 200 {object} dto.APIResponse{data=dto.ImportResponse}
// @Failure 400 {object} dto.ErrorResponse "The file failed validation"
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Router /imports/students [post]
func (c *ImportController) ImportStudents(ctx *gin.Context) {
	data, name, err := readFormFile(ctx, "file", c.maxBytes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.importService.ImportStudents(ctx.Request.Context(), data)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", name).Msg("Student import failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// ImportCatalog handles a program outcome and course catalog import
// @Summary Import the course catalog
// @Description Creates or updates program outcomes and courses, then replaces the outcome set of every listed course
// @Tags imports
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param outcomes formData file true "po_code,po_desc CSV"
// @Param courses formData file true "course_code,course_name CSV"
// @Param course_outcomes formData file true "course_code,pos CSV with dash separated outcome codes"
// @Success 200 {object} dto.APIResponse{data=dto.ImportResponse}
// @Failure 400 {object} dto.ErrorResponse "A file failed validation"
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Failure 404 {object} dto.ErrorResponse "A course refers to an unknown outcome"
// @Router /imports/catalog [post]
func (c *ImportController) ImportCatalog(ctx *gin.Context) {
	var files services.CatalogFiles
	for field, dst := range map[string]*[]byte{
		"outcomes":        &files.Outcomes,
		"courses":         &files.Courses,
		"course_outcomes": &files.CourseOutcomes,
	} {
		data, _, err := readFormFile(ctx, field, c.maxBytes)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		*dst = data
	}

	resp, err := c.importService.ImportCatalog(ctx.Request.Context(), files)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Catalog import failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
