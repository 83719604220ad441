// Package response writes JSON responses and maps service errors to HTTP statuses.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/pkg/logger"
)

// InternalErrorMessage is the body of every 500 response.
const InternalErrorMessage = "Internal server error"

// Error sends a standardized error response.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

// AbortWithError sends a standardized error response and stops the handler chain.
func AbortWithError(c *gin.Context, statusCode int, message string) {
	Error(c, statusCode, message)
	c.Abort()
}

// FromError maps err to a status and message. Unexpected errors are logged and
// surfaced without detail.
func FromError(c *gin.Context, log *logger.Logger, err error) {
	status, message := Status(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	Error(c, status, message)
}

// Status returns the HTTP status and client message for err.
func Status(err error) (int, string) {
	var ve *apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.Is(err, apperrors.ErrNotFoundOrAlreadyCompleted):
		return http.StatusNotFound, apperrors.ErrNotFoundOrAlreadyCompleted.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, InternalErrorMessage
	}
}
