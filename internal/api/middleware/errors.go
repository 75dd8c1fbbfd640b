package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/product-catalog/internal/repository"
	"github.com/princeprakhar/product-catalog/internal/utils"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
	"github.com/princeprakhar/product-catalog/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ErrorHandler turns the last error recorded on the context into the JSON
// error body. Handlers only call c.Error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

// Recovery converts a panic into a 500 through the same error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		panicRecoveries.Inc()
		err := apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", recovered))
		_ = c.Error(err)
		writeError(c, err)
		c.Abort()
	})
}

func toAppError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return apperrors.NotFound("Product was not found", err)
	case errors.Is(err, repository.ErrReviewNotFound):
		return apperrors.NotFound("Review was not found", err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict("The resource was modified concurrently, retry the request", err)
	default:
		return apperrors.Internal("Internal server error", err)
	}
}

func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)

	entry := logger.WithFields(logrus.Fields{
		"request_id": c.GetString(RequestIDKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     appErr.Status,
		"code":       appErr.Code,
	})
	if appErr.Status >= 500 {
		entry.WithError(err).Error(appErr.Message)
	} else {
		entry.Debug(appErr.Message)
	}

	utils.SendError(c, appErr.Status, appErr.Message, appErr.Code, appErr.Details)
}
