// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package api

import (
	"net/http"
	"time"
)

// LivenessStatus is the body of GET /api/v1/health/live.
type LivenessStatus struct {
	Alive  bool    `json:"alive"`
	Uptime float64 `json:"uptime"`
}

// ReadinessStatus is the body of GET /api/v1/health/ready.
type ReadinessStatus struct {
	Ready       bool    `json:"ready"`
	HubOpen     bool    `json:"hub_open"`
	Connections int     `json:"connections"`
	Rooms       int     `json:"rooms"`
	NATSEnabled bool    `json:"nats_enabled"`
	NATSRunning bool    `json:"nats_running"`
	Uptime      float64 `json:"uptime"`
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, LivenessStatus{
		Alive:  true,
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 503 once the hub has shut down, or while an enabled NATS backbone
// is not running.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := ReadinessStatus{
		HubOpen:     !h.hub.Closed(),
		Connections: h.hub.ConnectionCount(),
		Rooms:       h.hub.RoomCount(),
		NATSEnabled: h.backbone != nil,
		Uptime:      time.Since(h.startTime).Seconds(),
	}
	if h.backbone != nil {
		status.NATSRunning = h.backbone.IsRunning()
	}
	status.Ready = status.HubOpen && (!status.NATSEnabled || status.NATSRunning)

	statusCode := http.StatusOK
	if !status.Ready {
		statusCode = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).Status(statusCode, status.Ready, status)
}
