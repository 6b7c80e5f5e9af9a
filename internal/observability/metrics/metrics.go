// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_lead_pipeline"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Webhook / pipeline metrics
	EventsReceived   prometheus.Counter
	EventsSkipped    *prometheus.CounterVec
	EventsDuplicate  prometheus.Counter
	EventsProcessed  prometheus.Counter
	EventsFailed     prometheus.Counter
	PipelineDuration prometheus.Histogram

	// Analysis metrics
	QualityScore prometheus.Histogram
	Sentiment    *prometheus.CounterVec

	// Dispatch metrics
	DispatchActions *prometheus.CounterVec
	ToolCalls       *prometheus.CounterVec

	// Record store metrics
	RecordSyncs  *prometheus.CounterVec
	RecordErrors prometheus.Counter

	// Retry queue publish metrics
	RetryPublishTotal   prometheus.Counter
	RetryPublishErrors  prometheus.Counter
	RetryPublishLatency prometheus.Histogram

	// Notification metrics
	NotificationsSent *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of webhook events received",
		}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped before processing",
		}, []string{"reason"}),
		EventsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_duplicate_total",
			Help:      "Total number of duplicate deliveries suppressed",
		}),
		EventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of events processed end to end",
		}),
		EventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Total number of events that hit the failure boundary",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end processing duration per event in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		QualityScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Distribution of call quality scores",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		Sentiment: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_total",
			Help:      "Total calls classified per sentiment",
		}, []string{"sentiment"}),

		DispatchActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_actions_total",
			Help:      "Total dispatch actions taken per outcome route",
		}, []string{"action", "result"}),
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total tool invocations routed per handler",
		}, []string{"handler", "result"}),

		RecordSyncs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_syncs_total",
			Help:      "Total record-store sync operations",
		}, []string{"operation"}),
		RecordErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_errors_total",
			Help:      "Total record-store errors",
		}),

		RetryPublishTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_publish_total",
			Help:      "Total messages published to the retry queue",
		}),
		RetryPublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_publish_errors_total",
			Help:      "Total retry queue publish errors",
		}),
		RetryPublishLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retry_publish_latency_seconds",
			Help:      "Retry queue publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Total notification sends per channel",
		}, []string{"channel", "result"}),
	}
}

// RecordEventReceived records a webhook delivery arriving.
func (m *Metrics) RecordEventReceived() {
	m.EventsReceived.Inc()
}

// RecordEventSkipped records an event skipped before processing.
func (m *Metrics) RecordEventSkipped(reason string) {
	m.EventsSkipped.WithLabelValues(reason).Inc()
}

// RecordDuplicate records a suppressed duplicate delivery.
func (m *Metrics) RecordDuplicate() {
	m.EventsDuplicate.Inc()
}

// RecordEventProcessed records one event finishing the pipeline.
func (m *Metrics) RecordEventProcessed(failed bool, durationSeconds float64) {
	m.PipelineDuration.Observe(durationSeconds)
	if failed {
		m.EventsFailed.Inc()
	} else {
		m.EventsProcessed.Inc()
	}
}

// RecordAnalysis records the quality analysis of one call.
func (m *Metrics) RecordAnalysis(sentiment string, score int) {
	m.Sentiment.WithLabelValues(sentiment).Inc()
	m.QualityScore.Observe(float64(score))
}

// RecordDispatch records one dispatch action and its result.
func (m *Metrics) RecordDispatch(action string, err error) {
	m.DispatchActions.WithLabelValues(action, resultLabel(err)).Inc()
}

// RecordToolCall records one routed tool invocation.
func (m *Metrics) RecordToolCall(handler string, err error) {
	m.ToolCalls.WithLabelValues(handler, resultLabel(err)).Inc()
}

// RecordSync records a record-store sync ("created" or "updated").
func (m *Metrics) RecordSync(operation string) {
	m.RecordSyncs.WithLabelValues(operation).Inc()
}

// RecordSyncError records a record-store failure.
func (m *Metrics) RecordSyncError() {
	m.RecordErrors.Inc()
}

// RecordRetryPublish records a retry queue publish attempt.
func (m *Metrics) RecordRetryPublish(err error, latencySeconds float64) {
	m.RetryPublishTotal.Inc()
	m.RetryPublishLatency.Observe(latencySeconds)
	if err != nil {
		m.RetryPublishErrors.Inc()
	}
}

// RecordNotification records a notification send attempt.
func (m *Metrics) RecordNotification(channel string, err error) {
	m.NotificationsSent.WithLabelValues(channel, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
