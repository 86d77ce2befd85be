package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/app/services"
	"github.com/tustunkok/pc-link/internal/middleware"
)

// SettingController handles site settings
type SettingController struct {
	settingService services.SettingService
	logger         zerolog.Logger
}

// NewSettingController creates a new SettingController
func NewSettingController(settingService services.SettingService, logger zerolog.Logger) *SettingController {
	return &SettingController{
		settingService: settingService,
		logger:         logger,
	}
}

// GetRegistration returns the registration toggle
// @Summary Get the registration setting
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationSettingResponse}
// @Failure 403 {object} dto.ErrorResponse "Superusers only"
// @Router /admin/settings/registration [get]
func (c *SettingController) GetRegistration(ctx *gin.Context) {
	setting, err := c.settingService.GetRegistration(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(setting))
}

// UpdateRegistration changes the registration toggle
// @Summary Update the registration setting
// @Description The request carries the version it was based on. A newer stored version rejects the update.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateRegistrationRequest true "New value and the version it replaces"
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationSettingResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 403 {object} dto.ErrorResponse "Superusers only"
// @Failure 409 {object} dto.ErrorResponse "The setting was changed concurrently"
// @Router /admin/settings/registration [put]
func (c *SettingController) UpdateRegistration(ctx *gin.Context) {
	var req dto.UpdateRegistrationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	setting, err := c.settingService.UpdateRegistration(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("version", req.Version).Msg("Registration setting not updated")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Bool("open", setting.Open).Int64("version", setting.Version).Msg("Registration setting updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(setting))
}
