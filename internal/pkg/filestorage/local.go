package filestorage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// ErrInvalidPath is returned for paths that leave the storage root
var ErrInvalidPath = errors.New("invalid file path")

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
}

var _ FileStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage instance rooted at basePath.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes r to a uniquely named file inside subPath. The original
// extension is kept so stored uploads still pass the extension check when
// they are replayed.
func (ls *LocalStorage) Save(r io.Reader, subPath, originalName string) (string, error) {
	dir, err := ls.resolve(subPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	uniqueFilename := uuid.New().String() + strings.ToLower(filepath.Ext(originalName))
	dstPath := filepath.Join(dir, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}

	if _, err = io.Copy(dst, r); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	relPath := filepath.ToSlash(filepath.Join(cleanSubPath(subPath), uniqueFilename))
	logger.Info().Str("filename", originalName).Str("saved_as", relPath).Msg("File saved successfully")
	return relPath, nil
}

// SaveBytes stores data the same way Save does
func (ls *LocalStorage) SaveBytes(data []byte, subPath, originalName string) (string, error) {
	return ls.Save(bytes.NewReader(data), subPath, originalName)
}

// ReadFile returns the content of a stored file
func (ls *LocalStorage) ReadFile(filePath string) ([]byte, error) {
	fullPath, err := ls.GetFullPath(filePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}
	return data, nil
}

// DeleteFile removes a file from the storage filesystem.
// Returns nil if deletion is successful or if the file doesn't exist.
func (ls *LocalStorage) DeleteFile(filePath string) error {
	if filePath == "" {
		return nil
	}

	physicalPath, err := ls.GetFullPath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(physicalPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	logger.Info().Str("path", physicalPath).Msg("File deleted successfully")
	return nil
}

// GetFullPath returns the full filesystem path for a stored file
func (ls *LocalStorage) GetFullPath(filePath string) (string, error) {
	if filePath == "" {
		return "", ErrInvalidPath
	}
	full, err := ls.resolve(filePath)
	if err != nil {
		return "", err
	}
	if full == filepath.Clean(ls.basePath) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// resolve joins rel onto the storage root and refuses results outside it
func (ls *LocalStorage) resolve(rel string) (string, error) {
	base := filepath.Clean(ls.basePath)
	full := filepath.Join(base, cleanSubPath(rel))
	if full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return full, nil
}

func cleanSubPath(p string) string {
	p = filepath.Clean("/" + filepath.FromSlash(p))
	return strings.TrimPrefix(p, string(filepath.Separator))
}
