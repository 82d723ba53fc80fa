// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes reported by RecordPublish.
const (
	OutcomeDelivered           = "delivered"
	OutcomeNoRecipients        = "no_recipients"
	OutcomeRejectedUnknownType = "rejected_unknown_type"
	OutcomeRejectedMissingID   = "rejected_missing_id"
	OutcomeRejectedMalformed   = "rejected_malformed"
)

var (
	// Relay Metrics
	RelayConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_connections",
			Help: "Current number of registered connections",
		},
	)

	RelayRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_rooms",
			Help: "Current number of rooms with at least one member",
		},
	)

	RelayJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_room_joins_total",
			Help: "Total number of room joins that changed membership",
		},
	)

	RelayLeaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_room_leaves_total",
			Help: "Total number of room leaves, including leaves caused by disconnect",
		},
	)

	RelayEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_published_total",
			Help: "Total number of events submitted to the relay",
		},
		[]string{"type", "outcome"},
	)

	RelayMessagesDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_delivered_total",
			Help: "Total number of frames enqueued to connections by broadcasts",
		},
	)

	RelaySendOverflows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_send_overflows_total",
			Help: "Total number of connections dropped because their send buffer was full",
		},
	)

	RelayBroadcastFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_broadcast_fanout",
			Help:    "Number of recipients per broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSFramesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_frames_received_total",
			Help: "Total number of client frames received, by action",
		},
		[]string{"action"},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// NATS Bridge Metrics
	NATSMessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of backbone messages consumed by the bridge",
		},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_failed_total",
			Help: "Total number of backbone messages the relay rejected",
		},
		[]string{"reason"},
	)

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of events published to the backbone",
		},
		[]string{"outcome"}, // "success", "error", "circuit_open", "rejected"
	)

	NATSProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Time from backbone receipt to broadcast completion",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	NATSConnectionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_connection_events_total",
			Help: "NATS client disconnects and reconnects by connection",
		},
		[]string{"connection", "event"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordPublish records one Publish outcome for an event type.
// Rejected unknown types are folded into a single label value to keep cardinality bounded.
func RecordPublish(eventType, outcome string) {
	if outcome == OutcomeRejectedUnknownType || outcome == OutcomeRejectedMalformed {
		eventType = "unknown"
	}
	RelayEventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// RecordBroadcast records the fan-out of a single broadcast.
func RecordBroadcast(recipients int) {
	RelayBroadcastFanout.Observe(float64(recipients))
	RelayMessagesDelivered.Add(float64(recipients))
}

// RecordSendOverflow records a connection dropped for a full send buffer.
func RecordSendOverflow() {
	RelaySendOverflows.Inc()
}

// RecordJoin records a membership change caused by a join.
func RecordJoin() {
	RelayJoins.Inc()
}

// RecordLeaves records n membership removals.
func RecordLeaves(n int) {
	if n > 0 {
		RelayLeaves.Add(float64(n))
	}
}

// UpdateRelayGauges sets the connection and room gauges.
func UpdateRelayGauges(connections, rooms int) {
	RelayConnections.Set(float64(connections))
	RelayRooms.Set(float64(rooms))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by a rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordWSFrame records an inbound client frame by action.
func RecordWSFrame(action string) {
	WSFramesReceived.WithLabelValues(action).Inc()
}

// RecordWSError records a WebSocket error by type.
func RecordWSError(errorType string) {
	WSErrors.WithLabelValues(errorType).Inc()
}

// RecordNATSConsume records a message being consumed from NATS
func RecordNATSConsume(duration time.Duration) {
	NATSMessagesConsumed.Inc()
	NATSProcessingDuration.Observe(duration.Seconds())
}

// RecordNATSFailed records a consumed message the relay did not deliver.
func RecordNATSFailed(reason string) {
	NATSMessagesFailed.WithLabelValues(reason).Inc()
}

// RecordNATSPublish records a publish attempt to the backbone.
func RecordNATSPublish(outcome string) {
	NATSMessagesPublished.WithLabelValues(outcome).Inc()
}

// RecordNATSConnectionEvent records a disconnect or reconnect of a backbone connection.
func RecordNATSConnectionEvent(connection, event string) {
	NATSConnectionEvents.WithLabelValues(connection, event).Inc()
}

// RecordCircuitBreakerRequest records a call routed through a circuit breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
// States follow gobreaker ordering: closed, half-open, open.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
}

func stateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// SetAppInfo publishes the build version alongside the Go runtime version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}
