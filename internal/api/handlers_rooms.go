// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// RoomsSnapshot is the body of GET /api/v1/rooms.
type RoomsSnapshot struct {
	Rooms       []relay.RoomStat `json:"rooms"`
	RoomCount   int              `json:"room_count"`
	Connections int              `json:"connections"`
}

// ListRooms returns every non-empty room with its member count.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	stats := h.hub.Rooms()
	WriteSuccess(w, r, RoomsSnapshot{
		Rooms:       stats,
		RoomCount:   len(stats),
		Connections: h.hub.ConnectionCount(),
	})
}

// GetRoom returns the member count of one room. Rooms exist only while they
// have members, so an empty room is 404.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	name := chi.URLParam(r, "room")
	category, _, err := rooms.Parse(name)
	if err != nil {
		rw.BadRequest("Invalid room name: " + err.Error())
		return
	}

	room := rooms.Name(name)
	members := h.hub.MemberCount(room)
	if members == 0 {
		rw.NotFound("Room has no members")
		return
	}

	rw.Success(relay.RoomStat{Room: room, Category: category, Members: members})
}
