package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eventforge/internal/observability"
)

// Metrics records per-route API latency. Scrapes of /metrics are not counted.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		m.ObserveAPI(c.Request.Method, routeOf(c), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
