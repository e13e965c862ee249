package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/servicekit/config"
	"github.com/kbukum/servicekit/version"
)

var startTime = time.Now()

// Info returns a handler that reports the service identity and uptime.
// Version and environment come from the top level of tree; build carries
// the linked binary information.
func Info(serviceName string, tree config.Tree) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"service":    serviceName,
			"go_version": runtime.Version(),
			"build":      version.Get(),
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if tree != nil {
			body["version"] = tree.GetString("version")
			body["environment"] = tree.GetString("environment")
			if id := tree.GetString("consul.service.id"); id != "" {
				body["service_id"] = id
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
