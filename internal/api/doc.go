// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package api provides the HTTP surface of the relay.

Endpoints:

	POST /api/v1/events          publish an event envelope to its room
	GET  /api/v1/rooms           snapshot of non-empty rooms
	GET  /api/v1/rooms/{room}    member count for one room
	GET  /api/v1/health/live     liveness probe
	GET  /api/v1/health/ready    readiness probe (hub and NATS backbone)
	GET  /ws                     WebSocket upgrade
	GET  /metrics                Prometheus exposition

Publishing:

Domain services POST the same envelope the NATS backbone carries:

	{"type":"newPost","forumId":"3","payload":{"title":"hello"}}

The response is always 202 for well-formed JSON. Events the relay rejects
(unknown type, missing id) are reported in the body, not as HTTP errors:

	{"success":true,"data":{"accepted":false,"delivered":false,"recipients":0,
	 "type":"bogus","reason":"unknown_type","route":"local"}}

Only bodies that are not JSON at all are answered with 400.

With the backbone running, valid events are forwarded to NATS and answered
with "route":"backbone"; every instance delivers them from its subscription.
When NATS refuses the publish or the circuit breaker is open, the event is
delivered on this instance only and the route is "local".

Identity:

The relay trusts the identity header (default X-User-ID) set by the
authenticating proxy in front of it. A connection that carries one is joined
to its personal user room at connect time.

Response Format:

All JSON responses use the APIResponse envelope:

	{"success":false,"error":{"code":"NOT_FOUND","message":"...","request_id":"..."}}
*/
package api
