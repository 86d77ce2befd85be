package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// readFormFile loads a multipart file into memory, refusing anything larger
// than maxBytes
func readFormFile(ctx *gin.Context, field string, maxBytes int64) ([]byte, string, error) {
	header, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apperrors.NewBadRequestError(fmt.Sprintf("The %q field must contain a file.", field))
		}
		return nil, "", apperrors.NewBadRequestError("Invalid multipart form.")
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, "", apperrors.NewCustomError(apperrors.ErrFileTooLarge,
			fmt.Sprintf("%s is larger than %d bytes.", header.Filename, maxBytes))
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("error opening uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("error reading uploaded file: %w", err)
	}
	return data, header.Filename, nil
}

// badRequest turns a parameter parsing error into a 400
func badRequest(err error) error {
	return apperrors.NewBadRequestError(err.Error())
}
