package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// SessionReporter exposes browser session usage.
type SessionReporter interface {
	Stats() models.SessionStats
	Uptime() time.Duration
}

// Health returns a handler for GET /api/health.
//
// Degrades status when > 80% of browser sessions are in use.
func Health(sr SessionReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sr.Stats()

		status := "healthy"
		if stats.MaxSessions > 0 && stats.ActiveSessions > int(float64(stats.MaxSessions)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       sr.Uptime().Round(time.Second).String(),
			SessionStats: stats,
			Version:      Version,
		})
	}
}
