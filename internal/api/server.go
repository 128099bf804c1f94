// Package api exposes the aggregated schedule over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine. gatherer may be nil to skip /metrics.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+userHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", handler.Health)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/events", handler.ListEvents)
		api.GET("/events/:id", handler.GetEvent)
		api.GET("/sections", handler.ListSections)
		api.GET("/new-arrivals", handler.ListNewArrivals)

		api.GET("/talent-filter", handler.GetTalentFilter)
		api.PUT("/talent-filter", handler.ReplaceTalentFilter)
		api.PUT("/talent-filter/:name", handler.SetTalentFilter)
		api.DELETE("/talent-filter", handler.ResetTalentFilter)

		api.GET("/bookmarks", handler.ListBookmarks)
		api.POST("/bookmarks/:id", handler.ToggleBookmark)
		api.POST("/bookmarks/:id/notify", handler.ToggleNotify)
		api.GET("/notifications", handler.PollNotifications)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
