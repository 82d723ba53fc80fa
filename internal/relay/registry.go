// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"time"

	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// Register adds a connection and returns its id. The connection starts in no rooms.
// The only failure is ErrHubClosed, after Shutdown.
func (h *Hub) Register(sender Sender) (ConnID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrHubClosed
	}

	h.nextID++
	c := &connection{
		id:          h.nextID,
		sender:      sender,
		rooms:       make(map[rooms.Name]struct{}),
		connectedAt: time.Now(),
	}
	h.conns[c.id] = c

	h.logger.Debug().
		Uint64("conn_id", uint64(c.id)).
		Int("total_connections", len(h.conns)).
		Msg("connection registered")
	return c.id, nil
}

// Unregister removes the connection from every room, closes its sender and
// forgets it. It returns false if id was not registered. Once Unregister
// returns, no broadcast can reach the connection.
func (h *Hub) Unregister(id ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return false
	}
	h.removeLocked(c, "unregister")
	return true
}

// Connected reports whether id is currently registered.
func (h *Hub) Connected(id ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.conns[id]
	return ok
}

// removeLocked is the single cleanup path for voluntary close, transport
// failure, send-buffer overflow and shutdown. h.mu must be held.
func (h *Hub) removeLocked(c *connection, reason string) {
	left := 0
	for room := range c.rooms {
		if h.dropMemberLocked(room, c.id) {
			left++
		}
	}
	c.rooms = nil
	delete(h.conns, c.id)
	c.sender.Close()

	metrics.RecordLeaves(left)
	h.logger.Debug().
		Uint64("conn_id", uint64(c.id)).
		Str("reason", reason).
		Int("rooms_left", left).
		Dur("connected_for", time.Since(c.connectedAt)).
		Int("total_connections", len(h.conns)).
		Msg("connection removed")
}
