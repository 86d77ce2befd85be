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

// FileController handles stored outcome files
type FileController struct {
	fileService        services.FileService
	maintenanceService services.MaintenanceService
	logger             zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(fileService services.FileService, maintenanceService services.MaintenanceService, logger zerolog.Logger) *FileController {
	return &FileController{
		fileService:        fileService,
		maintenanceService: maintenanceService,
		logger:             logger,
	}
}

// ListFiles returns the caller's outcome files
// @Summary List outcome files
// @Description Returns the caller's uploaded files, newest first. Superusers see every file.
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.FileResponse}}
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /files [get]
func (c *FileController) ListFiles(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	files, err := c.fileService.ListFiles(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(files))
}

// DeleteFile removes a file and the results of its course and semester
// @Summary Delete an outcome file
// @Description Deletes the file, its record and every result of its course in its semester
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} dto.APIResponse{data=dto.FileDeleteResponse}
// @Failure 403 {object} dto.ErrorResponse "The file belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id} [delete]
func (c *FileController) DeleteFile(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, badRequest(err))
		return
	}

	resp, err := c.fileService.DeleteFile(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// DeleteFileOnly removes a file but keeps its results
// @Summary Delete an outcome file and keep its results
// @Tags files
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 204 "File deleted"
// @Failure 403 {object} dto.ErrorResponse "The file belongs to another user"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /files/{id}/artifact [delete]
func (c *FileController) DeleteFileOnly(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, badRequest(err))
		return
	}

	if err := c.fileService.DeleteFileOnly(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Recalculate rebuilds every result from the stored files
// @Summary Recalculate all results
// @Description Deletes every result and replays each stored file in upload order
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RecalculateResponse}
// @Failure 403 {object} dto.ErrorResponse "Superusers only"
// @Router /admin/recalculate [post]
func (c *FileController) Recalculate(ctx *gin.Context) {
	resp, err := c.maintenanceService.RecalculateAll(ctx.Request.Context())
	if err != nil {
		c.logger.Error().Err(err).Msg("Recalculation failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
