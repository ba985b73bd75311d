package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error classes for the conversion pipeline. Callers branch on these with
// errors.Is; AppError adds per-site context on top.
var (
	// ErrNotFound means the upload identifier has no record.
	ErrNotFound = errors.New("upload not found")
	// ErrAlreadyProcessing is the concurrency-guard outcome; not a failure.
	ErrAlreadyProcessing = errors.New("upload is already being processed")
	// ErrAlreadyCompleted means the stored result should be returned as-is.
	ErrAlreadyCompleted = errors.New("upload already completed")
	// ErrInvalidDocument means the byte buffer is not parseable as a PDF.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrRenderingUnavailable means the rendering path itself is broken in
	// this environment (drawing surface or library init), not the document.
	ErrRenderingUnavailable = errors.New("rendering unavailable")
	// ErrStorageError covers object-store download/upload failures.
	ErrStorageError = errors.New("storage error")
	// ErrAllStrategiesExhausted means even the minimal placeholder threw.
	ErrAllStrategiesExhausted = errors.New("all rendering strategies exhausted")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ClassOf maps err onto the pipeline taxonomy for persistence and logging.
// Unclassified errors report as "internal".
func ClassOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrAlreadyProcessing):
		return "AlreadyProcessing"
	case errors.Is(err, ErrAlreadyCompleted):
		return "AlreadyCompleted"
	case errors.Is(err, ErrInvalidDocument):
		return "InvalidDocument"
	case errors.Is(err, ErrRenderingUnavailable):
		return "RenderingUnavailable"
	case errors.Is(err, ErrStorageError):
		return "StorageError"
	case errors.Is(err, ErrAllStrategiesExhausted):
		return "AllStrategiesExhausted"
	default:
		return "internal"
	}
}
