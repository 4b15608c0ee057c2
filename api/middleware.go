// Package api exposes zone counts and the zone authoring session over HTTP.
package api

import (
	"ZoneCountServer/logger"
	"ZoneCountServer/monitor"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger writes one zap line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log().Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

// Metrics counts requests by route template and status code.
func Metrics(m *monitor.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func newEngine(m *monitor.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Logger())
	if m != nil {
		r.Use(Metrics(m))
	}
	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	return r
}
