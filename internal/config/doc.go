// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package config provides centralized configuration management for the relay.

# Configuration Sources

Configuration is layered with koanf, later sources overriding earlier ones:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/campus-relay/config.yaml
  - Environment variables listed in envMappings; anything else is ignored

# Environment Variables

HTTP Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - SHUTDOWN_TIMEOUT (default: 10s)
  - SLOW_REQUEST_THRESHOLD (default: 1s)

WebSocket:
  - WS_WRITE_WAIT, WS_PONG_WAIT, WS_PING_PERIOD (ping must be < pong)
  - WS_MAX_MESSAGE_SIZE (default: 512KB)
  - WS_SEND_BUFFER: frames queued before a slow client is dropped (default: 256)
  - WS_INBOUND_RATE, WS_INBOUND_BURST: client frames per second (default: 20/40)
  - IDENTITY_HEADER: trusted user id header (default: X-User-ID)
  - MAX_EVENT_BYTES: HTTP publish body limit (default: 64KB)

NATS Backbone:
  - NATS_ENABLED (default: false)
  - NATS_URL (default: nats://127.0.0.1:4222)
  - NATS_EMBEDDED, NATS_EMBEDDED_HOST, NATS_EMBEDDED_PORT
  - NATS_SUBJECT_PREFIX (default: campus)
  - NATS_QUEUE_GROUP: leave empty so every instance sees every event
  - NATS_BREAKER_FAILURE_THRESHOLD, NATS_BREAKER_TIMEOUT

Security:
  - CORS_ORIGINS: comma-separated; also the WebSocket origin allow-list
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL (trace, debug, info, warn, error), LOG_FORMAT (json, console), LOG_CALLER

Supervisor:
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	logging.Init(cfg.LoggingSettings())
*/
package config
