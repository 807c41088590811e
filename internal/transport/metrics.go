package transport

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	outcomeOK        = "ok"
	outcomeHTTPError = "http_error"
	outcomeNetError  = "transport_error"
)

var (
	// clientReqs counts backend calls by method, resource action and outcome.
	clientReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizdata_client_requests_total",
			Help: "Total number of backend requests issued by the data client.",
		},
		[]string{"method", "path", "outcome"},
	)

	// clientLat records backend call latency in seconds.
	clientLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizdata_client_request_duration_seconds",
			Help:    "Duration of backend requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(clientReqs, clientLat)
}

// actionLabel keeps the first path segment ("update-product/42" becomes
// "update-product") so ids never end up in label values.
func actionLabel(path string) string {
	p := strings.TrimLeft(path, "/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return p
}
