package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	// HTTPRequestDuration tracks request latency by method, path, and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestTimeout counts requests whose context expired by path.
	HTTPRequestTimeout = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_timeout_total",
			Help: "Total number of HTTP request timeouts",
		},
		[]string{"path"},
	)
)

// Database metrics
var (
	// DBTransactionDuration tracks transaction duration by operation label.
	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_transaction_duration_seconds",
			Help:    "Duration of database transactions in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// DBPoolConnectionsInUse gauges the number of in-use database connections.
	DBPoolConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_connections_in_use",
			Help: "Number of database connections currently in use",
		},
	)

	// DBPoolConnectionsIdle gauges the number of idle database connections.
	DBPoolConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_pool_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// Outbox metrics
var (
	// OutboxPendingEvents gauges the number of unpublished outbox events.
	OutboxPendingEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending_events",
			Help: "Number of unpublished events in outbox",
		},
	)

	// OutboxOldestUnpublishedAge gauges the age in seconds of the oldest unpublished event.
	OutboxOldestUnpublishedAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_oldest_unpublished_age_seconds",
			Help: "Age of the oldest unpublished outbox event in seconds",
		},
	)

	// OutboxPublished counts relayed events by event type and result.
	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Total number of outbox events handed to the broker",
		},
		[]string{"event_type", "result"},
	)

	// OutboxDropped counts unpublished events discarded by a bounded outbox.
	OutboxDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_dropped_total",
			Help: "Total number of unpublished outbox events dropped at capacity",
		},
	)
)

// Wallet metrics
var (
	// WalletOperations counts orchestrator runs by operation and result.
	WalletOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_operations_total",
			Help: "Total number of wallet operations by outcome",
		},
		[]string{"operation", "result"},
	)

	// WalletFailures counts failures by kind and family.
	WalletFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_failures_total",
			Help: "Total number of wallet failures by kind",
		},
		[]string{"kind", "family"},
	)

	// WalletInFlightRejected counts money-moving calls rejected because another
	// one was still running for the same wallet.
	WalletInFlightRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_in_flight_rejected_total",
			Help: "Total number of operations rejected while another was in flight",
		},
		[]string{"operation"},
	)

	// NotificationsQueued counts notifications by severity.
	NotificationsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_notifications_total",
			Help: "Total number of user notifications queued by severity",
		},
		[]string{"severity"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns an HTTP middleware that records request metrics.
// Side effects: records Prometheus metrics and reads the current time.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip metrics endpoint itself
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routeTemplate(r)

		HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()

		if r.Context().Err() != nil {
			HTTPRequestTimeout.WithLabelValues(path).Inc()
		}
	})
}

// routeTemplate labels requests by their mux route template to avoid
// cardinality explosion from user and transaction IDs.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RecordTransactionDuration records a transaction duration.
// Side effects: records a Prometheus metric.
func RecordTransactionDuration(operation string, duration time.Duration) {
	DBTransactionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPoolStats records connection pool gauges.
func RecordPoolStats(inUse, idle int32) {
	DBPoolConnectionsInUse.Set(float64(inUse))
	DBPoolConnectionsIdle.Set(float64(idle))
}

// RecordOutboxBacklog records the unpublished backlog.
func RecordOutboxBacklog(pending int, oldest time.Duration) {
	OutboxPendingEvents.Set(float64(pending))
	OutboxOldestUnpublishedAge.Set(oldest.Seconds())
}

// RecordOutboxPublished counts a relayed event.
func RecordOutboxPublished(eventType string, ok bool) {
	OutboxPublished.WithLabelValues(eventType, resultLabel(ok)).Inc()
}

// RecordOutboxDropped counts events discarded by a bounded outbox.
func RecordOutboxDropped(n int) {
	OutboxDropped.Add(float64(n))
}

// RecordOperation counts an orchestrator outcome.
// Side effects: records a Prometheus metric.
func RecordOperation(operation string, ok bool) {
	WalletOperations.WithLabelValues(operation, resultLabel(ok)).Inc()
}

// RecordFailure counts a failure by kind and family.
func RecordFailure(kind, family string) {
	WalletFailures.WithLabelValues(kind, family).Inc()
}

// RecordInFlightRejected counts a call rejected by the in-flight guard.
func RecordInFlightRejected(operation string) {
	WalletInFlightRejected.WithLabelValues(operation).Inc()
}

// RecordNotification counts a queued notification.
func RecordNotification(severity string) {
	NotificationsQueued.WithLabelValues(severity).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
