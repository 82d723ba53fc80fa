// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package websocket is the client transport for the relay, built on gorilla/websocket.

Each upgraded connection becomes a Client. The client registers itself with the
relay hub as a relay.Sender and runs two goroutines:

  - readPump: reads client frames, enforces the per-connection rate limit,
    validates and dispatches them (join, leave, publish, ping)
  - writePump: drains the send buffer to the socket and sends pings

	          ┌──────────────┐
	frames ─▶ │  relay.Hub   │ ─ Enqueue ─▶ Client.send ─▶ writePump ─▶ socket
	          └──────▲───────┘
	                 │ Join / Leave / Send
	socket ─▶ readPump

The hub owns the send channel's lifetime: it closes it (via Client.Close) only
after removing the connection from every room, so a write after close cannot
happen. When the socket dies, readPump unregisters the connection; when the
hub shuts down or drops a slow client, writePump sees the closed channel and
sends a close frame.

# Protocol

Client to server:

	{"action":"join","category":"group","id":"7"}
	{"action":"join","room":"group_7"}
	{"action":"leave","room":"group_7"}
	{"action":"publish","event":{"type":"newPost","forumId":"9","payload":{}},"exclude_self":true}
	{"action":"ping"}

Server to client:

	{"type":"welcome","data":{"connection_id":12}}
	{"type":"joined","room":"group_7"}
	{"type":"left","room":"group_7"}
	{"type":"published","room":"forum_9","data":{"accepted":true,"delivered":true,"recipients":3,...}}
	{"type":"pong"}
	{"type":"error","data":{"code":"INVALID_ROOM","message":"..."}}

and every broadcast as {"type":<event type>,"room":<room>,"data":<payload>}.

A connection that supplies an identity (see api.Handler) is joined to its
personal user_<id> room before the first frame is read.
*/
package websocket
