// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package main is the entry point for the campus relay server.

The relay keeps one WebSocket per signed-in user, places each connection in
rooms (user_<id>, group_<id>, forum_<id>, ...) and routes typed campus events
to the rooms they belong to.

# Application Architecture

	RootSupervisor ("campus-relay")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Relay hub (connection registry, room index, gauges)
	│   └── NATS backbone (optional, NATS_ENABLED=true)
	└── APISupervisor ("api-layer")
	    └── HTTP server (REST, /ws, /metrics)

Initialization order:

 1. Configuration: koanf defaults, optional config.yaml, environment
 2. Logging: zerolog from LOG_LEVEL / LOG_FORMAT
 3. Relay hub and the relay router built on it
 4. NATS backbone, when enabled, forwarding campus.events.* into the relay
 5. HTTP handler and chi router
 6. Supervisor tree, run until SIGINT or SIGTERM

# Example Usage

Single instance behind an authenticating proxy:

	export CORS_ORIGINS=https://campus.example.edu
	export IDENTITY_HEADER=X-User-ID
	./campus-relay

Several instances sharing an embedded NATS server on the first:

	export NATS_ENABLED=true
	export NATS_EMBEDDED=true
	./campus-relay

# Signal Handling

On SIGINT or SIGTERM the HTTP server stops accepting requests, the backbone
unsubscribes and every WebSocket connection is closed.
*/
package main
