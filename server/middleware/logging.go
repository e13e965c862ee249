package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/servicekit/logger"
)

// quietPaths are polled by the discovery agent and are not logged.
var quietPaths = map[string]bool{
	"/health": true,
}

// RequestLogger logs each request with its status and latency. 5xx logs at
// error, 4xx at warn, anything else at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if quietPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			logger.FieldDuration, latency.Milliseconds(),
			"client", c.ClientIP(),
		)
		if id := GetRequestID(c); id != "" {
			fields[logger.FieldRequestID] = id
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
