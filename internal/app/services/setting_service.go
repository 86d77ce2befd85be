package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// SettingService defines the interface for site settings
type SettingService interface {
	GetRegistration(ctx context.Context) (*dto.RegistrationSettingResponse, error)
	UpdateRegistration(ctx context.Context, req *dto.UpdateRegistrationRequest) (*dto.RegistrationSettingResponse, error)
}

// settingServiceImpl implements SettingService
type settingServiceImpl struct {
	settingRepo ISettingRepository
	log         zerolog.Logger
}

// NewSettingService creates a new SettingService
func NewSettingService(settingRepo ISettingRepository) SettingService {
	return &settingServiceImpl{
		settingRepo: settingRepo,
		log:         logger.Component("settings"),
	}
}

// GetRegistration returns the registration toggle with its version
func (s *settingServiceImpl) GetRegistration(ctx context.Context) (*dto.RegistrationSettingResponse, error) {
	setting, err := s.settingRepo.Get(ctx, models.SettingRegistrationOpen)
	if err != nil {
		return nil, err
	}
	return registrationResponse(setting)
}

// UpdateRegistration flips the toggle when the caller saw the current
// version; a concurrent change makes it fail with ErrStaleSetting
func (s *settingServiceImpl) UpdateRegistration(ctx context.Context, req *dto.UpdateRegistrationRequest) (*dto.RegistrationSettingResponse, error) {
	var updatedBy *int64
	if p, err := auth.PrincipalFrom(ctx); err == nil {
		updatedBy = &p.UserID
	}

	setting, err := s.settingRepo.CompareAndSwap(ctx, models.SettingRegistrationOpen,
		strconv.FormatBool(*req.Open), req.Version, updatedBy)
	if err != nil {
		return nil, err
	}

	s.log.Info().Bool("open", *req.Open).Int64("version", setting.Version).Msg("Registration setting changed")
	return registrationResponse(setting)
}

func registrationResponse(setting *models.SiteSetting) (*dto.RegistrationSettingResponse, error) {
	open, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return nil, fmt.Errorf("stored value %q of %s is not a boolean: %w", setting.Value, setting.Key, err)
	}
	return &dto.RegistrationSettingResponse{Open: open, Version: setting.Version}, nil
}
