// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	ws "github.com/tomtom215/campus-relay/internal/websocket"
)

func (h *Handler) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: h.config.HandshakeTimeout,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// CORS allow-list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; accepting an empty one would bypass CORS.
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowedOrigin := range h.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().
		Str("origin", logging.SanitizeValue(origin)).
		Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the request and hands the connection to the hub.
// The identity header, when present, joins the connection to its user room.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub.Closed() {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: hub shut down")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	// Upgrade writes its own error response.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.RecordWSError("upgrade")
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.hub, h.publisher, h.config.WebSocket)
	// The connection outlives the request; keep its logging fields only.
	if err := client.Start(context.WithoutCancel(r.Context()), r.Header.Get(h.config.IdentityHeader)); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket client not registered")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
}
