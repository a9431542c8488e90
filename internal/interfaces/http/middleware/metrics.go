package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count, latency and in-flight gauge.  The path
// label is the route template so that IDs do not explode cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		done := m.TrackActive()
		start := time.Now()

		c.Next()

		done()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

//Personal.AI order the ending
