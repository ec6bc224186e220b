package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
	"github.com/use-agent/pricewatch/site"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler for GET /api/v1/health.
//
// db may be nil when alerts are disabled. A failing database degrades the
// status but still answers 200 so price checks stay routable.
func Health(db Pinger, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, storeStatus := "healthy", "disabled"
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			err := db.Ping(ctx)
			cancel()
			storeStatus = "ok"
			if err != nil {
				status, storeStatus = "degraded", "unreachable"
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Version:   Version,
			Sites:     len(site.All()),
			Store:     storeStatus,
			CheckedAt: time.Now().UTC(),
		})
	}
}
