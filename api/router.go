package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sneakerscope/api/handler"
	"github.com/use-agent/sneakerscope/api/middleware"
	"github.com/use-agent/sneakerscope/config"
	"github.com/use-agent/sneakerscope/metrics"
	"github.com/use-agent/sneakerscope/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:   Recovery → RequestID → access log
//	Sneakers: Auth (if enabled) → RateLimit (if enabled)
//
// Health, sites and metrics stay outside auth so probes always work.
// Background middleware work stops when ctx is done.
func NewRouter(ctx context.Context, sr *scraper.Router, m *metrics.Metrics, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(accessLog())

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	base := r.Group("/api")
	base.GET("/health", handler.Health(sr))
	base.GET("/sites", handler.Sites(sr))

	protected := base.Group("")
	protected.Use(middleware.Auth(cfg.Auth))
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))
	}
	protected.GET("/sneakers/:site", handler.Sneakers(sr, cfg.Scraper.DefaultLimit))

	return r
}

// accessLog writes one slog line per request.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
			"request_id", middleware.GetRequestID(c),
		)
	}
}
