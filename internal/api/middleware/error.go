package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/totalaudio/tracker-backend-go/internal/core/analytics"
	apperrors "github.com/totalaudio/tracker-backend-go/pkg/errors"
	"github.com/totalaudio/tracker-backend-go/pkg/utils"
)

// ErrorHandlingMiddleware recovers from panics and converts them into a
// consistent 500 response.
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"ip":          c.ClientIP(),
			"panic":       recovered,
			"stack_trace": string(debug.Stack()),
		}).Error("Panic recovered in HTTP handler")

		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}

// ErrorResponseMiddleware converts errors attached to the gin context into
// the API's error envelope after the handler chain runs. Analytics domain
// errors map to their natural statuses; AppErrors carry their own; anything
// else is a 500 with the cause kept to the logs.
func ErrorResponseMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := statusFor(err)

		entry := logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Warn("Request failed")
		}

		utils.SendError(c, status, messageFor(err, status))
	}
}

func statusFor(err error) int {
	var unsupported *analytics.UnsupportedPlatformError
	var invalid *analytics.InvalidPayloadError
	var insufficient *analytics.InsufficientDataError

	switch {
	case errors.As(err, &unsupported), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &insufficient):
		return http.StatusUnprocessableEntity
	default:
		return apperrors.GetStatusCode(err)
	}
}

func messageFor(err error, status int) string {
	if apperrors.IsAppError(err) {
		return apperrors.GetMessage(err)
	}
	// Domain errors are safe to show as-is; unknown 500s are not.
	if status < http.StatusInternalServerError {
		return err.Error()
	}
	return "Internal server error"
}
