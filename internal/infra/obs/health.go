package obs

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandlers answers orchestrator probes. Checks maps a dependency name
// to its readiness probe; an empty map means the process is ready as soon as
// it serves traffic.
type HealthHandlers struct {
	Checks map[string]func(ctx context.Context) error
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Readyz fails on the first broken dependency and names it, so the probe
// output says what to look at.
func (h HealthHandlers) Readyz(c *gin.Context) {
	for name, check := range h.Checks {
		if err := check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"check":  name,
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
