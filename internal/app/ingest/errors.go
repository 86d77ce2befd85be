package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
)

// Kind classifies why an uploaded file was rejected
type Kind string

const (
	WrongFileType             Kind = "WrongFileType"
	EncodingUndetermined      Kind = "EncodingUndetermined"
	MalformedHeader           Kind = "MalformedHeader"
	InconsistentExemptMarking Kind = "InconsistentExemptMarking"
	InvalidCellValue          Kind = "InvalidCellValue"
	OutcomeSetMismatch        Kind = "OutcomeSetMismatch"
	UnknownOutcomeCode        Kind = "UnknownOutcomeCode"
	StudentNotFound           Kind = "StudentNotFound"
	ParseFailure              Kind = "ParseFailure"
)

// ValidationError is returned for every rejected upload. Lines holds the
// 1-based file lines the message refers to, if any.
type ValidationError struct {
	Kind    Kind
	Message string
	Lines   []int
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap lets callers match the error against apperrors.ErrValidationFailed
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrValidationFailed
}

// Details returns the error in the shape used by API error responses
func (e *ValidationError) Details() map[string]interface{} {
	details := map[string]interface{}{
		"kind": string(e.Kind),
	}
	if len(e.Lines) > 0 {
		details["lines"] = e.Lines
	}
	return details
}

func newError(kind Kind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newLineError(kind Kind, lines []int, format string) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, joinLines(lines)),
		Lines:   lines,
	}
}

// NewUnknownOutcomeError reports an outcome code that no program outcome carries
func NewUnknownOutcomeError(code string) *ValidationError {
	return newError(UnknownOutcomeCode, "Program outcome %s is not registered in the system.", code)
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}
