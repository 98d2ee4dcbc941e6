// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamnotes_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamnotes_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Notes
	NoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamnotes_note_operations_total",
			Help: "Note operations by outcome",
		},
		[]string{"operation", "outcome"}, // post/delete/toggle_hide/list; ok/moderated/forbidden/invalid/not_found/error
	)

	// Realtime
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "teamnotes_realtime_connections",
			Help: "Currently registered realtime clients",
		},
	)

	RealtimeEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamnotes_realtime_events_delivered_total",
			Help: "Events queued to realtime clients",
		},
		[]string{"type"},
	)

	RealtimeClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamnotes_realtime_clients_dropped_total",
			Help: "Clients disconnected because their outbound queue overflowed",
		},
	)

	RealtimePublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamnotes_realtime_publish_failures_total",
			Help: "Publishes that did not reach the broker",
		},
		[]string{"type"},
	)
)

// TrackNoteOperation counts a note operation with its outcome
func TrackNoteOperation(operation, outcome string) {
	NoteOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// TrackDelivered counts one event queued to one client
func TrackDelivered(eventType string) {
	RealtimeEventsDelivered.WithLabelValues(eventType).Inc()
}

// TrackPublishFailure counts an event the broker could not accept
func TrackPublishFailure(eventType string) {
	RealtimePublishFailures.WithLabelValues(eventType).Inc()
}
