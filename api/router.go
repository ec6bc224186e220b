package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/use-agent/pricewatch/api/handler"
	"github.com/use-agent/pricewatch/api/middleware"
	"github.com/use-agent/pricewatch/config"
	"github.com/use-agent/pricewatch/store"
	"github.com/use-agent/pricewatch/tracker"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring checks always
// work. Alert routes exist only when st is non-nil.
func NewRouter(svc *tracker.Service, st *store.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	var db handler.Pinger
	if st != nil {
		db = st
	}
	v1.GET("/health", handler.Health(db, startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	timeout := cfg.Server.RequestTimeout
	protected.POST("/price", handler.Price(svc, timeout))
	protected.POST("/price/batch", handler.Batch(svc, cfg.Server.BatchConcurrency, timeout))
	protected.POST("/classify", handler.Classify())

	if st != nil {
		alerts := protected.Group("/alerts")
		alerts.POST("", handler.CreateAlert(st, svc, timeout))
		alerts.GET("", handler.ListAlerts(st))
		alerts.DELETE("/:id", handler.DeleteAlert(st))
		alerts.GET("/:id/history", handler.AlertHistory(st))
	}

	return r
}

// WithCORS wraps h with cross-origin handling for the given origins.
func WithCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		MaxAge:         600,
	}).Handler(h)
}
