// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

// Package eventprocessor connects the relay to a NATS backbone using Watermill.
//
// Domain services that do not hold a websocket connection publish events to
// NATS subjects named "<prefix>.<event type>". Every relay instance runs a
// Bridge subscribed to "<prefix>.>" and feeds each payload through the same
// validation and room routing as events published over HTTP or websocket:
//
//	┌──────────────┐   ┌──────────────┐
//	│ forum service│   │ rsvp service │   (Publisher, circuit breaker)
//	└──────┬───────┘   └──────┬───────┘
//	       │ campus.newPost   │ campus.event_rsvp_update
//	       └────────┬─────────┘
//	                ▼
//	        ┌───────────────┐
//	        │  NATS (core)  │   embedded or external
//	        └───────┬───────┘
//	                │ campus.>
//	     ┌──────────┴──────────┐
//	     ▼                     ▼
//	┌──────────┐          ┌──────────┐
//	│ relay #1 │          │ relay #2 │   Bridge → relay.PublishRaw → rooms
//	└──────────┘          └──────────┘
//
// # Delivery
//
// The backbone uses core NATS, not JetStream. Delivery is best-effort and
// at-most-once, which matches the relay itself: a client that is not
// connected when an event is broadcast never sees it. Instances subscribe
// without a queue group so every instance receives every event and
// broadcasts it to its own connections.
//
// # Components
//
//   - Config: subject prefix, connection and breaker settings
//   - EmbeddedServer: in-process nats-server for single-node deployments
//   - Subscriber / Publisher: Watermill NATS wrappers
//   - Bridge: consumes the backbone and drives the relay
//   - Backbone: owns all of the above with a Start/Shutdown lifecycle
package eventprocessor
