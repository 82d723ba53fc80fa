// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package metrics provides Prometheus collectors for the relay.

All collectors are registered on the default registry through promauto and are
exposed at /metrics by the API router.

# Available Metrics

Relay:
  - relay_connections: Registered connections (gauge)
  - relay_rooms: Rooms with at least one member (gauge)
  - relay_room_joins_total, relay_room_leaves_total: Membership changes (counter)
  - relay_events_published_total: Publish outcomes (counter)
    Labels: type, outcome (delivered, no_recipients, rejected_unknown_type,
    rejected_missing_id, rejected_malformed)
  - relay_messages_delivered_total: Frames enqueued by broadcasts (counter)
  - relay_send_overflows_total: Connections dropped for a full send buffer (counter)
  - relay_broadcast_fanout: Recipients per broadcast (histogram)

HTTP and WebSocket:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total
  - websocket_frames_received_total (label: action), websocket_errors_total

NATS backbone:
  - nats_messages_consumed_total, nats_messages_failed_total (label: reason)
  - nats_messages_published_total (label: outcome)
  - nats_processing_duration_seconds
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total

# Example

	metrics.RecordPublish("newPost", metrics.OutcomeDelivered)
	metrics.UpdateRelayGauges(hub.ConnectionCount(), hub.RoomCount())
*/
package metrics
