package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/servicekit/errors"
	"github.com/kbukum/servicekit/logger"
)

// Recovery recovers from handler panics, logs the stack and answers 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					logger.FieldRequestID, GetRequestID(c),
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					errors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse())
			}
		}()
		c.Next()
	}
}
