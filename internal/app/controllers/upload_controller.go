package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
	"github.com/tustunkok/pc-link/internal/pkg/helpers"
)

// UploadController handles program outcome and exemption file uploads
type UploadController struct {
	uploadService    services.UploadService
	exemptionService services.ExemptionService
	maxBytes         int64
	logger           zerolog.Logger
}

// NewUploadController creates a new UploadController
func NewUploadController(
	uploadService services.UploadService,
	exemptionService services.ExemptionService,
	maxBytes int64,
	logger zerolog.Logger,
) *UploadController {
	return &UploadController{
		uploadService:    uploadService,
		exemptionService: exemptionService,
		maxBytes:         maxBytes,
		logger:           logger,
	}
}

// Upload handles a program outcome file upload
// @Summary Upload a program outcome file
// @Description Validates a course's outcome CSV, stores it and writes the results of its students. A second upload for the same course and semester replaces the first one.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param course_code formData string true "Course code" example(CMPE101)
// @Param semester_id formData int true "Semester ID"
// @Param file formData file true "Outcome CSV file"
// @Success 201 {object} dto.APIResponse{data=dto.UploadResponse} "File processed"
// @Failure 400 {object} dto.ErrorResponse "The file failed validation"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Course or semester not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	var req dto.UploadRequest
	if !middleware.BindForm(ctx, &req) {
		return
	}

	data, name, err := readFormFile(ctx, "file", c.maxBytes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.uploadService.Upload(ctx.Request.Context(), services.UploadInput{
		CourseCode: req.CourseCode,
		SemesterID: req.SemesterID,
		FileName:   name,
		Data:       data,
	})
	if err != nil {
		c.logger.Warn().Err(err).
			Str("course", req.CourseCode).
			Int64("semester", req.SemesterID).
			Str("file", name).
			Msg("Upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// Reupload replaces the artifact of a stored file
// @Summary Re-upload a program outcome file
// @Description Replaces a stored outcome file with a new version and rewrites its results
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param file formData file true "Outcome CSV file"
// @Success 200 {object} dto.APIResponse{data=dto.UploadResponse} "File processed"
// @Failure 400 {object} dto.ErrorResponse "The file failed validation"
// @Failure 403 {object} dto.ErrorResponse "The file belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id} [put]
func (c *UploadController) Reupload(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, badRequest(err))
		return
	}

	data, name, err := readFormFile(ctx, "file", c.maxBytes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.uploadService.Reupload(ctx.Request.Context(), id, name, data)
	if err != nil {
		c.logger.Warn().Err(err).Int64("file_id", id).Str("file", name).Msg("Re-upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UploadExemptions handles an exemption file
// @Summary Upload exemptions
// @Description Marks every program outcome of the listed courses as satisfied for the listed students. The whole file is rejected when a line cannot be resolved.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Exemption CSV file"
// @Success 201 {object} dto.APIResponse{data=dto.ExemptionResponse} "Exemptions written"
// @Failure 400 {object} dto.ErrorResponse "The file failed validation"
// @Failure 403 {object} dto.ErrorResponse "Staff only"
// @Failure 404 {object} dto.ErrorResponse "A line refers to an unknown student, course or semester"
// @Router /exemptions [post]
func (c *UploadController) UploadExemptions(ctx *gin.Context) {
	data, name, err := readFormFile(ctx, "file", c.maxBytes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.exemptionService.UploadExemptions(ctx.Request.Context(), data)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", name).Msg("Exemption upload rejected")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}
