package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nexerp-ops/procmon-backend-go/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorHandlingMiddleware recovers panics and renders collected errors as a
// consistent JSON shape.
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.WithFields(logrus.Fields{
					"panic":  recovered,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Error("Panic recovered in HTTP handler")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "internal server error",
				})
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		message := "internal server error"

		if appErr, ok := err.(*errors.AppError); ok {
			status = appErr.Code
			message = appErr.Message
		}

		logger.WithError(err).WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		}).Error("Request failed")

		c.JSON(status, gin.H{
			"success": false,
			"error":   message,
		})
	}
}
