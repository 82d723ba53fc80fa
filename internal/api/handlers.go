// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package api

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/campus-relay/internal/relay"
	ws "github.com/tomtom215/campus-relay/internal/websocket"
)

// ErrMissingDependency is returned by NewHandler when the hub or publisher is nil.
var ErrMissingDependency = errors.New("api: missing handler dependency")

// DefaultMaxEventBytes bounds POST /api/v1/events bodies.
const DefaultMaxEventBytes int64 = 64 * 1024

// DefaultIdentityHeader carries the caller's user id from the authenticating proxy.
const DefaultIdentityHeader = "X-User-ID"

// BackboneStatus reports the state of the NATS backbone for readiness.
// *eventprocessor.Backbone implements it.
type BackboneStatus interface {
	IsRunning() bool
}

// Forwarder puts a producer envelope on the NATS backbone so every relay
// instance, this one included, delivers it to its room members.
// *eventprocessor.Publisher implements it.
type Forwarder interface {
	PublishRaw(ctx context.Context, data []byte) error
}

// HandlerConfig tunes the handler. Zero fields fall back to defaults.
type HandlerConfig struct {
	// CORSOrigins is also the WebSocket origin allow-list. "*" allows any origin.
	CORSOrigins []string

	// IdentityHeader names the trusted header holding the caller's user id.
	IdentityHeader string

	MaxEventBytes    int64
	HandshakeTimeout time.Duration

	WebSocket ws.Config
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.IdentityHeader == "" {
		c.IdentityHeader = DefaultIdentityHeader
	}
	if c.MaxEventBytes <= 0 {
		c.MaxEventBytes = DefaultMaxEventBytes
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	return c
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_events.go: event publishing
//   - handlers_rooms.go: room snapshots
//   - handlers_health.go: liveness and readiness
//   - handlers_websocket.go: WebSocket upgrade
type Handler struct {
	hub       *relay.Hub
	publisher ws.Publisher
	backbone  BackboneStatus
	forwarder Forwarder
	config    HandlerConfig
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler creates a new API handler.
//
// Dependencies:
//   - hub: the connection registry and room index shared with the backbone bridge
//   - publisher: usually the *relay.Relay built on hub
//   - backbone: optional; nil when the NATS backbone is disabled
func NewHandler(hub *relay.Hub, publisher ws.Publisher, backbone BackboneStatus, cfg HandlerConfig) (*Handler, error) {
	if hub == nil || publisher == nil {
		return nil, ErrMissingDependency
	}
	h := &Handler{
		hub:       hub,
		publisher: publisher,
		backbone:  backbone,
		config:    cfg.withDefaults(),
		startTime: time.Now(),
	}
	h.upgrader = h.newUpgrader()
	return h, nil
}

// WithForwarder routes HTTP-published events through the backbone while it
// is running. Without one, events are delivered on this instance only.
func (h *Handler) WithForwarder(f Forwarder) *Handler {
	h.forwarder = f
	return h
}
