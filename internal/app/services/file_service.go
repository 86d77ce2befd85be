package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/filestorage"
	"github.com/tustunkok/pc-link/internal/pkg/helpers"
	"github.com/tustunkok/pc-link/internal/pkg/locker"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// FileService defines the interface for managing stored outcome files
type FileService interface {
	ListFiles(ctx context.Context, page, size int) (*dto.PaginatedResponse, error)
	DeleteFile(ctx context.Context, id int64) (*dto.FileDeleteResponse, error)
	DeleteFileOnly(ctx context.Context, id int64) error
}

// fileServiceImpl implements FileService
type fileServiceImpl struct {
	fileRepo IOutcomeFileRepository
	authz    *auth.AuthorizationService
	storage  filestorage.FileStorage
	locker   locker.Locker
	log      zerolog.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	fileRepo IOutcomeFileRepository,
	authz *auth.AuthorizationService,
	storage filestorage.FileStorage,
	lk locker.Locker,
) FileService {
	return &fileServiceImpl{
		fileRepo: fileRepo,
		authz:    authz,
		storage:  storage,
		locker:   lk,
		log:      logger.Component("files"),
	}
}

// ListFiles returns the caller's files, newest first. Superusers see every
// user's files.
func (s *fileServiceImpl) ListFiles(ctx context.Context, page, size int) (*dto.PaginatedResponse, error) {
	user, err := s.authz.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	var owner *int64
	if !user.IsSuperuser {
		owner = &user.ID
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	files, total, err := s.fileRepo.List(ctx, owner, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}

	items := make([]dto.FileResponse, len(files))
	for i := range files {
		items[i] = dto.FromOutcomeFile(&files[i])
	}

	return &dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// DeleteFile removes a file together with every result of its course and
// semester
func (s *fileServiceImpl) DeleteFile(ctx context.Context, id int64) (*dto.FileDeleteResponse, error) {
	f, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := s.authz.ValidateFileAccess(ctx, f)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Acquire(ctx, locker.UploadKey(f.CourseID, f.SemesterID))
	if err != nil {
		return nil, fmt.Errorf("error waiting for upload lock: %w", err)
	}
	defer unlock()

	removed, err := s.fileRepo.DeleteWithResults(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error deleting file: %w", err)
	}
	s.removeArtifact(f.FilePath)

	s.log.Info().
		Str("user", user.Username).
		Int64("file_id", f.ID).
		Str("course", f.CourseCode).
		Str("semester", f.SemesterLabel).
		Int64("removed_results", removed).
		Msg("Outcome file deleted with its results")

	return &dto.FileDeleteResponse{FileID: f.ID, RemovedResults: removed}, nil
}

// DeleteFileOnly removes a file and its record but keeps the results
func (s *fileServiceImpl) DeleteFileOnly(ctx context.Context, id int64) error {
	f, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	user, err := s.authz.ValidateFileAccess(ctx, f)
	if err != nil {
		return err
	}

	if err := s.fileRepo.Delete(ctx, f.ID); err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}
	s.removeArtifact(f.FilePath)

	s.log.Info().Str("user", user.Username).Int64("file_id", f.ID).Msg("Outcome file deleted, results kept")
	return nil
}

func (s *fileServiceImpl) removeArtifact(p string) {
	if err := s.storage.DeleteFile(p); err != nil {
		s.log.Error().Err(err).Str("path", p).Msg("Failed to remove outcome file artifact")
	}
}
