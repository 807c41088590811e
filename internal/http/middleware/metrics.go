package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Bridge metrics. The path label is the registered route so list names in
// the URL do not blow up cardinality.
var (
	bridgeReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bizbridge",
			Name:      "http_requests_total",
			Help:      "Requests served by the bridge.",
		},
		[]string{"method", "path", "status"},
	)

	bridgeLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bizbridge",
			Name:      "http_request_duration_seconds",
			Help:      "Bridge request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	bridgeInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bizbridge",
			Name:      "http_requests_inflight",
			Help:      "Bridge requests currently being served.",
		},
	)
)

func init() {
	prometheus.MustRegister(bridgeReqs, bridgeLat, bridgeInflight)
}

// Metrics records request count, latency and concurrency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		bridgeInflight.Inc()
		defer bridgeInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		bridgeReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		bridgeLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
