// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"fmt"
	"sort"

	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// BroadcastOption adjusts a single Broadcast call.
type BroadcastOption func(*broadcastOptions)

type broadcastOptions struct {
	exclude    ConnID
	hasExclude bool
}

// ExcludeConn skips one member, typically the connection that originated the event.
func ExcludeConn(id ConnID) BroadcastOption {
	return func(o *broadcastOptions) {
		o.exclude = id
		o.hasExclude = true
	}
}

// Join adds the connection to room. Joining a room twice is the same as joining once;
// the returned bool reports whether membership changed.
func (h *Hub) Join(id ConnID, room rooms.Name) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownConnection, id)
	}
	if _, member := c.rooms[room]; member {
		return false, nil
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[ConnID]struct{})
		h.rooms[room] = members
	}
	members[id] = struct{}{}
	c.rooms[room] = struct{}{}

	metrics.RecordJoin()
	h.logger.Debug().
		Uint64("conn_id", uint64(id)).
		Str("room", room.String()).
		Int("members", len(members)).
		Msg("joined room")
	return true, nil
}

// Leave removes the connection from room. Leaving a room that was never joined,
// or leaving with an id that is no longer registered, is a no-op.
// The returned bool reports whether membership changed.
func (h *Hub) Leave(id ConnID, room rooms.Name) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return false
	}
	if _, member := c.rooms[room]; !member {
		return false
	}
	delete(c.rooms, room)
	h.dropMemberLocked(room, id)

	metrics.RecordLeaves(1)
	h.logger.Debug().
		Uint64("conn_id", uint64(id)).
		Str("room", room.String()).
		Msg("left room")
	return true
}

// dropMemberLocked removes id from room's member set and deletes the room once
// it is empty. h.mu must be held.
func (h *Hub) dropMemberLocked(room rooms.Name, id ConnID) bool {
	members, ok := h.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[id]; !ok {
		return false
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	return true
}

// Broadcast enqueues frame to every current member of room and returns the
// number of connections it was enqueued to. An empty or unknown room is a no-op.
//
// Members are visited in id order. A member whose send buffer is full is
// treated as disconnected and cleaned up before Broadcast returns; the
// remaining members still receive the frame.
func (h *Hub) Broadcast(room rooms.Name, frame []byte, opts ...BroadcastOption) int {
	var o broadcastOptions
	for _, opt := range opts {
		opt(&o)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		metrics.RecordBroadcast(0)
		return 0
	}

	ids := make([]ConnID, 0, len(members))
	for id := range members {
		if o.hasExclude && id == o.exclude {
			continue
		}
		ids = append(ids, id)
	}
	sortIDs(ids)

	delivered := 0
	var overflowed []*connection
	for _, id := range ids {
		c := h.conns[id]
		if c.sender.Enqueue(frame) {
			delivered++
			continue
		}
		overflowed = append(overflowed, c)
	}

	for _, c := range overflowed {
		metrics.RecordSendOverflow()
		h.logger.Warn().
			Uint64("conn_id", uint64(c.id)).
			Str("room", room.String()).
			Msg("send buffer full, disconnecting")
		h.removeLocked(c, "send_overflow")
	}

	metrics.RecordBroadcast(delivered)
	return delivered
}

// Send enqueues frame to a single connection. It returns false if the
// connection is unknown or its buffer is full; a full buffer disconnects it
// exactly as in Broadcast.
func (h *Hub) Send(id ConnID, frame []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return false
	}
	if c.sender.Enqueue(frame) {
		return true
	}
	metrics.RecordSendOverflow()
	h.removeLocked(c, "send_overflow")
	return false
}

// Members returns the ids currently in room, in ascending order.
func (h *Hub) Members(room rooms.Name) []ConnID {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	ids := make([]ConnID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// MemberCount returns the number of connections in room.
func (h *Hub) MemberCount(room rooms.Name) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// RoomsOf returns the rooms id has joined, sorted. Unknown ids have none.
func (h *Hub) RoomsOf(id ConnID) []rooms.Name {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[id]
	if !ok {
		return nil
	}
	out := make([]rooms.Name, 0, len(c.rooms))
	for room := range c.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RoomStat is one entry of a Rooms snapshot.
type RoomStat struct {
	Room     rooms.Name     `json:"room"`
	Category rooms.Category `json:"category"`
	Members  int            `json:"members"`
}

// Rooms returns a snapshot of every non-empty room, sorted by name.
func (h *Hub) Rooms() []RoomStat {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RoomStat, 0, len(h.rooms))
	for room, members := range h.rooms {
		out = append(out, RoomStat{Room: room, Category: room.Category(), Members: len(members)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	return out
}
