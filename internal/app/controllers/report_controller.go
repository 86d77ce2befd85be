package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/helpers"
)

// ReportController handles report requests and downloads
type ReportController struct {
	reportService services.ReportService
	logger        zerolog.Logger
}

// NewReportController creates a new ReportController
func NewReportController(reportService services.ReportService, logger zerolog.Logger) *ReportController {
	return &ReportController{
		reportService: reportService,
		logger:        logger,
	}
}

// Export queues a report over a set of semesters
// @Summary Request a report
// @Description Queues the program outcome report of the chosen semesters. Poll the status endpoint with the returned task id.
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ExportRequest true "Semesters and an optional curriculum"
// @Success 202 {object} dto.APIResponse{data=dto.TaskCreatedResponse} "Report queued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Semester or curriculum not found"
// @Router /reports/export [post]
func (c *ReportController) Export(ctx *gin.Context) {
	var req dto.ExportRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.reportService.EnqueueExport(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(resp))
}

// Diff queues a comparison of two semester groups
// @Summary Request a difference report
// @Description Queues the comparison of the average columns of two semester groups
// @Tags reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DiffRequest true "Both semester groups and an optional curriculum"
// @Success 202 {object} dto.APIResponse{data=dto.TaskCreatedResponse} "Report queued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Semester or curriculum not found"
// @Router /reports/diff [post]
func (c *ReportController) Diff(ctx *gin.Context) {
	var req dto.DiffRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.reportService.EnqueueDiff(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(resp))
}

// Status reports the state of a report task
// @Summary Report task status
// @Description Unknown task ids are reported as PENDING
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task ID"
// @Success 200 {object} dto.APIResponse{data=dto.TaskStatusResponse}
// @Router /reports/{taskId}/status [get]
func (c *ReportController) Status(ctx *gin.Context) {
	resp, err := c.reportService.TaskStatus(ctx.Request.Context(), ctx.Param("taskId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Download sends the rendered report of a finished task
// @Summary Download a report
// @Tags reports
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param taskId path string true "Task ID"
// @Param format query string false "csv or xlsx" Enums(csv, xlsx) default(csv)
// @Success 200 {file} file "report.csv or report.xlsx"
// @Failure 400 {object} dto.ErrorResponse "Unsupported format"
// @Failure 404 {object} dto.ErrorResponse "Unknown task, or the semester groups do not differ"
// @Failure 409 {object} dto.ErrorResponse "The report is not ready yet"
// @Router /reports/{taskId}/download [get]
func (c *ReportController) Download(ctx *gin.Context) {
	taskID := ctx.Param("taskId")

	d, err := c.reportService.Download(ctx.Request.Context(), taskID, ctx.DefaultQuery("format", services.FormatCSV))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Debug().Str("task_id", taskID).Str("file", d.FileName).Int("bytes", len(d.Body)).Msg("Report downloaded")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.FileName))
	ctx.Data(http.StatusOK, d.ContentType, d.Body)
}

// CourseStatus lists the courses offered in a semester with their upload
// state
// @Summary Course upload status
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param semester_id query int true "Semester ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CourseStatusResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing semester_id"
// @Failure 404 {object} dto.ErrorResponse "Semester not found"
// @Router /reports/course-status [get]
func (c *ReportController) CourseStatus(ctx *gin.Context) {
	semesterID, err := helpers.ParseOptionalID(ctx, "semester_id")
	if err != nil {
		middleware.HandleAPIError(ctx, badRequest(err))
		return
	}
	if semesterID == nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("semester_id is required"))
		return
	}

	status, err := c.reportService.CourseStatus(ctx.Request.Context(), *semesterID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status))
}
