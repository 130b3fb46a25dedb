package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel outcome labels
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics holds all application metrics
type Metrics struct {
	// Notification dispatch metrics
	NotificationsSent   *prometheus.CounterVec
	ChannelResults      *prometheus.CounterVec
	SendDuration        prometheus.Histogram
	PreferenceFallbacks prometheus.Counter
	BatchSize           prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec

	// Worker metrics
	WorkerMessages *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates all application metrics and registers them with reg.
// A nil reg falls back to the default prometheus registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		NotificationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total number of notification sends by type and urgency",
		}, []string{"type", "urgency"}),
		ChannelResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "channel_results_total",
			Help:      "Per-channel notification outcomes",
		}, []string{"channel", "outcome"}),
		SendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time spent dispatching one notification across its channels",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		PreferenceFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "preference_fallbacks_total",
			Help:      "Number of sends that used default preferences",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "batch_size",
			Help:      "Number of recipients per batch send",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),

		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		RedisOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redis_operations_total",
			Help:      "Total number of Redis operations",
		}, []string{"operation", "status"}),

		WorkerMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_total",
			Help:      "Notification requests consumed by the worker",
		}, []string{"status"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveChannel records one channel outcome.
func (m *Metrics) ObserveChannel(channel string, success, skipped bool) {
	if m == nil {
		return
	}
	outcome := OutcomeFailed
	switch {
	case skipped:
		outcome = OutcomeSkipped
	case success:
		outcome = OutcomeSent
	}
	m.ChannelResults.WithLabelValues(channel, outcome).Inc()
}

// ObserveDB records one database operation outcome.
func (m *Metrics) ObserveDB(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatabaseOperations.WithLabelValues(operation, status).Inc()
	m.DatabaseLatency.WithLabelValues(operation).Observe(seconds)
}

// ObserveSend records one completed send.
func (m *Metrics) ObserveSend(notificationType, urgency string, seconds float64) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(notificationType, urgency).Inc()
	m.SendDuration.Observe(seconds)
}

// ObservePreferenceFallback counts a send that used default preferences.
func (m *Metrics) ObservePreferenceFallback() {
	if m == nil {
		return
	}
	m.PreferenceFallbacks.Inc()
}

// ObserveBatch records the recipient count of one batch send.
func (m *Metrics) ObserveBatch(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

// ObserveWorkerMessage counts one consumed request by outcome.
func (m *Metrics) ObserveWorkerMessage(status string) {
	if m == nil {
		return
	}
	m.WorkerMessages.WithLabelValues(status).Inc()
}
