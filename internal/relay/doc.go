// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package relay routes application events to the connections subscribed to a room.

It has two halves:

  - Hub is the connection registry and the room membership index. Transports
    Register a Sender, Join and Leave rooms on the client's behalf, and
    Unregister when the socket goes away. Broadcast enqueues a frame to every
    member of a room.
  - Relay validates typed events (package events), resolves their room and
    broadcasts the encoded frame through the Hub.

# Concurrency

All membership changes and every broadcast are serialized on the Hub's mutex.
Broadcast never blocks on I/O: it calls Sender.Enqueue, which must be a
non-blocking push onto the connection's send buffer. A connection whose buffer
is full is disconnected on the spot through the same cleanup path as a
voluntary close, so one slow client never stalls a room.

Because frames are enqueued in the order Broadcast is called, and each
connection drains its buffer in order, a single connection always observes
events in the order they were published to its rooms.

# Rooms

Rooms exist only while they have members. The last Leave (or disconnect)
deletes the room; nothing else ever evicts membership.

# Usage

	hub := relay.NewHub()
	r := relay.New(hub)

	id, _ := hub.Register(sender)
	_, _ = hub.Join(id, rooms.MustNew(rooms.CategoryGroup, "7"))

	ev, _ := events.NewGroupMessage("7", map[string]string{"text": "hi"})
	res := r.Publish(ctx, ev)
	// res.Delivered == true, res.Recipients == 1
*/
package relay
