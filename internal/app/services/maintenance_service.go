package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// MaintenanceService defines the interface for whole-database operations
type MaintenanceService interface {
	RecalculateAll(ctx context.Context) (*dto.RecalculateResponse, error)
}

// maintenanceServiceImpl implements MaintenanceService
type maintenanceServiceImpl struct {
	fileRepo   IOutcomeFileRepository
	resultRepo IOutcomeResultRepository
	uploads    UploadService
	log        zerolog.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(fileRepo IOutcomeFileRepository, resultRepo IOutcomeResultRepository, uploads UploadService) MaintenanceService {
	return &maintenanceServiceImpl{
		fileRepo:   fileRepo,
		resultRepo: resultRepo,
		uploads:    uploads,
		log:        logger.Component("maintenance"),
	}
}

// RecalculateAll deletes every result and replays every stored file in
// upload order. A file that no longer validates is logged and skipped.
func (s *maintenanceServiceImpl) RecalculateAll(ctx context.Context) (*dto.RecalculateResponse, error) {
	files, err := s.fileRepo.ListForReplay(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing stored files: %w", err)
	}

	removed, err := s.resultRepo.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error deleting results: %w", err)
	}

	resp := &dto.RecalculateResponse{Files: len(files), RemovedResults: removed}
	for i := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := &files[i]
		result, err := s.uploads.Replay(ctx, f)
		if err != nil {
			resp.Failed++
			s.log.Warn().
				Err(err).
				Int64("file_id", f.ID).
				Str("course", f.CourseCode).
				Str("semester", f.SemesterLabel).
				Msg("Stored file could not be replayed")
			continue
		}
		resp.Created += result.Created
	}

	s.log.Info().
		Int("files", resp.Files).
		Int("failed", resp.Failed).
		Int("created", resp.Created).
		Int64("removed", removed).
		Msg("Results recalculated")
	return resp, nil
}
