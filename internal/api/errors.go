// Package api provides error handling utilities for HTTP APIs
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/catalog"
	"github.com/mantonx/vidindex/internal/indexer"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/scanner"
)

// Error codes returned to API clients.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeFileMissing  = "MEDIA_FILE_MISSING"
	CodeConflict     = "CONFLICT"
	CodeRootNotFound = "MEDIA_ROOT_NOT_FOUND"
	CodeCatalogWrite = "CATALOG_WRITE_ERROR"
	CodeCancelled    = "CANCELLED"
	CodeInternal     = "INTERNAL_ERROR"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error is an error with an HTTP status and a client-facing code.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	Context    map[string]interface{}
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a 400 error for a bad request field.
func NewValidationError(message string, field string) *Error {
	return &Error{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

// NewFileMissingError creates a 404 for a catalog entry whose file is not
// on disk.
func NewFileMissingError(path string) *Error {
	return &Error{
		Code:       CodeFileMissing,
		Message:    "video file not found on disk, run a sync to update the catalog",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"path": path},
	}
}

// Classify maps domain errors onto API errors.
func Classify(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var writeErr *catalog.CatalogWriteError
	switch {
	case errors.Is(err, catalog.ErrVideoNotFound):
		return &Error{Code: CodeNotFound, Message: "video not found", HTTPStatus: http.StatusNotFound, Cause: err}
	case errors.Is(err, catalog.ErrInvalidInput):
		return &Error{Code: CodeValidation, Message: err.Error(), HTTPStatus: http.StatusBadRequest}
	case errors.Is(err, indexer.ErrSyncInProgress):
		return &Error{Code: CodeConflict, Message: err.Error(), HTTPStatus: http.StatusConflict}
	case errors.Is(err, scanner.ErrRootNotFound):
		return &Error{Code: CodeRootNotFound, Message: "media root not found", HTTPStatus: http.StatusServiceUnavailable, Cause: err}
	case errors.As(err, &writeErr):
		return &Error{
			Code:       CodeCatalogWrite,
			Message:    "catalog write failed",
			HTTPStatus: http.StatusInternalServerError,
			Context:    map[string]interface{}{"operation": writeErr.Op, "rows": writeErr.Count},
			Cause:      err,
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeCancelled, Message: "request cancelled", HTTPStatus: http.StatusRequestTimeout, Cause: err}
	default:
		return &Error{Code: CodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Cause: err}
	}
}

// RespondWithError sends a structured error response
func RespondWithError(c *gin.Context, err error) {
	apiErr := Classify(err)

	// Server errors are recorded on the context and logged by ErrorLogger.
	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err).SetType(gin.ErrorTypePrivate).SetMeta(apiErr.Code)
	} else {
		logger.Debug("HTTP error response",
			"status", apiErr.HTTPStatus,
			"code", apiErr.Code,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", err.Error(),
		)
	}

	c.JSON(apiErr.HTTPStatus, ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Context: apiErr.Context,
		},
	})
}

// ErrorMiddleware recovers from panics and answers with a 500.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = errors.New("unknown panic")
				}

				logger.Error("panic recovered",
					"error", err,
					"request_path", c.Request.URL.Path,
					"request_method", c.Request.Method,
				)

				RespondWithError(c, err)
				c.Abort()
			}
		}()

		c.Next()
	}
}
