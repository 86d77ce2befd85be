package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appauth "github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/ingest"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/logger"
)

// errorMapping ties a sentinel to a status, a code and the message used when
// the error carries no message of its own
type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; the first sentinel the error matches wins
var errorMappings = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrFileTooLarge, http.StatusBadRequest, dto.ErrorCodeFileTooLarge, "File too large"},
	{apperrors.ErrSemesterInactive, http.StatusBadRequest, dto.ErrorCodeBadRequest, "The semester is not open for uploads"},

	{appauth.ErrNoPrincipal, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeForbidden, "Account is disabled"},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrRegistrationClosed, http.StatusForbidden, dto.ErrorCodeForbidden, "Registration is closed"},

	{apperrors.ErrNoDifference, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "No difference detected"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student not found"},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found"},
	{apperrors.ErrSemesterNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Semester not found"},
	{apperrors.ErrProgramOutcomeNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Program outcome not found"},
	{apperrors.ErrCurriculumNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Curriculum not found"},
	{apperrors.ErrOutcomeFileNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "File not found"},
	{apperrors.ErrTaskNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Report task not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	{apperrors.ErrTaskNotReady, http.StatusConflict, dto.ErrorCodeTaskNotReady, "The report is not ready yet"},
	{apperrors.ErrStaleSetting, http.StatusConflict, dto.ErrorCodeConflict, "The setting was changed by someone else, reload and try again"},
	{apperrors.ErrUsernameExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Username already exists"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
}

// HandleAPIError writes the error response for err and aborts the request
func HandleAPIError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errorResponse(c, err))
}

func errorResponse(c *gin.Context, err error) (int, *dto.ErrorResponse) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, verr.Message).WithDetails(verr.Details())
		return http.StatusBadRequest, dto.NewErrorResponse(detail)
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, messageFor(err, m.message))
		var cerr *apperrors.CustomError
		if errors.As(err, &cerr) && len(cerr.Details) > 0 {
			detail = detail.WithDetails(cerr.Details)
		}
		return m.status, dto.NewErrorResponse(detail)
	}

	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	return http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"))
}

// messageFor prefers the message of a CustomError; plain sentinels fall back
// to the mapping's message. Validation errors wrapped with extra context keep
// their full text.
func messageFor(err error, fallback string) string {
	var cerr *apperrors.CustomError
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	if errors.Is(err, apperrors.ErrValidationFailed) && err != apperrors.ErrValidationFailed {
		return err.Error()
	}
	return fallback
}
