package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eventforge/internal/pkg/logger"
)

// quietPaths are hit by health checks and scrapes; logged only on failure.
var quietPaths = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
	"/metrics":     true,
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		if quietPaths[route] && status < 400 {
			return
		}

		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency", time.Since(start),
			"trace_id", c.GetString(ctxTraceID),
			"request_id", c.GetString(ctxRequestID),
		}
		if id := c.Param("id"); id != "" {
			kv = append(kv, "event_id", id)
		}
		if rank := c.Query("rank"); rank != "" {
			kv = append(kv, "rank", rank)
		}
		if msg := c.Errors.ByType(gin.ErrorTypeAny).String(); msg != "" {
			kv = append(kv, "errors", msg)
		}

		switch {
		case status >= 500:
			log.Error("request failed", kv...)
		case status >= 400:
			log.Warn("request rejected", kv...)
		default:
			log.Debug("request served", kv...)
		}
	}
}

// routeOf is the matched route pattern, so ids do not explode label and log cardinality.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
