package filestorage

import (
	"io"
)

// FileStorage defines the interface for file storage operations. Paths
// returned by Save are relative to the storage root and are what the
// database records keep.
type FileStorage interface {
	// Save stores the content of r under subPath and returns its relative path
	Save(r io.Reader, subPath, originalName string) (string, error)

	// SaveBytes stores data under subPath and returns its relative path
	SaveBytes(data []byte, subPath, originalName string) (string, error)

	// ReadFile returns the content of a stored file
	ReadFile(filePath string) ([]byte, error)

	// DeleteFile removes a file from storage
	DeleteFile(filePath string) error

	// GetFullPath returns the full filesystem path for a stored file
	GetFullPath(filePath string) (string, error)
}
