// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

// MakeJSONResponse writes a JSON response with the given status code. Used by
// handlers outside the gin router (health and metrics endpoints).
func MakeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON
// response. Internal detail (store addresses, stack traces) stays in the
// server-side log; the response body carries only the error class.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch {
	case apperrors.Is(err, apperrors.ErrMalformedRequest):
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error:   "bad_request",
			Message: "The request is missing or carries malformed required headers",
		}

	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "The request was already processed",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusUnprocessableEntity
		errorResponse = ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "forbidden",
			Message: "You don't have permission to perform this action",
		}

	case apperrors.Is(err, apperrors.ErrRateLimited):
		statusCode = http.StatusTooManyRequests
		errorResponse = ErrorResponse{
			Error:   "rate_limited",
			Message: "Request quota exceeded, retry later",
		}
		var rateErr *apperrors.RateLimitError
		if apperrors.As(err, &rateErr) {
			c.Header("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
		}

	case apperrors.Is(err, apperrors.ErrMisconfigured):
		// An operator defect must surface as a server error, never degrade
		// into an accept.
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "misconfigured",
			Message: "The server is misconfigured",
		}

	default:
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters using Gin.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors using Gin.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	}

	c.JSON(http.StatusUnprocessableEntity, errorResponse)
}
