// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrocms_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrocms_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	authEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrocms_auth_events_total",
		Help: "Authentication attempts by event and result",
	}, []string{"event", "result"})

	articleMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrocms_article_mutations_total",
		Help: "Article create, update and delete operations by result",
	}, []string{"op", "result"})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agrocms_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper",
	})
)

// ObserveHTTPRequest records an HTTP request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveAuth counts a login, register or logout with result ok or fail.
func ObserveAuth(event, result string) {
	authEvents.WithLabelValues(event, result).Inc()
}

func ObserveArticleMutation(op, result string) {
	articleMutations.WithLabelValues(op, result).Inc()
}

func AddSessionsSwept(n int64) {
	sessionsSwept.Add(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
