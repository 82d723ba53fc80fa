// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package websocket

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/rooms"
	"github.com/tomtom215/campus-relay/internal/validation"
)

// Client actions.
const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionPublish = "publish"
	ActionPing    = "ping"
)

// Server frame types. Broadcast frames carry the event type instead.
const (
	TypeWelcome   = "welcome"
	TypeJoined    = "joined"
	TypeLeft      = "left"
	TypePublished = "published"
	TypePong      = "pong"
	TypeError     = "error"
)

// Error codes sent in error frames.
const (
	ErrCodeInvalidJSON = "INVALID_JSON"
	ErrCodeValidation  = validation.CodeValidation
	ErrCodeInvalidRoom = "INVALID_ROOM"
	ErrCodeRateLimited = "RATE_LIMITED"
	ErrCodeUnsupported = "UNSUPPORTED_FRAME"
)

// RoomID accepts a JSON string or integer so clients can send {"id":7}.
type RoomID string

// UnmarshalJSON implements json.Unmarshaler.
func (r *RoomID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RoomID(s)
		return nil
	}
	if data[0] == '-' || (data[0] >= '0' && data[0] <= '9') {
		id, err := rooms.NumericID(string(data))
		if err != nil {
			return errors.New("id must be a string or integer")
		}
		*r = RoomID(id)
		return nil
	}
	return errors.New("id must be a string or integer")
}

// ClientFrame is one message from a client.
//
//	{"action":"join","category":"group","id":"7"}
//	{"action":"leave","room":"group_7"}
//	{"action":"publish","event":{"type":"groupMessage","groupId":"7","payload":{...}},"exclude_self":true}
//	{"action":"ping"}
type ClientFrame struct {
	Action      string          `json:"action" validate:"required,oneof=join leave publish ping"`
	Category    string          `json:"category,omitempty" validate:"omitempty,room_category"`
	ID          RoomID          `json:"id,omitempty" validate:"omitempty,room_id"`
	Room        string          `json:"room,omitempty" validate:"omitempty,room_name"`
	Event       json.RawMessage `json:"event,omitempty" validate:"required_if=Action publish"`
	ExcludeSelf bool            `json:"exclude_self,omitempty"`
}

// room resolves the frame's target room. A canonical room name wins over
// category and id.
func (f *ClientFrame) room() (rooms.Name, error) {
	if f.Room != "" {
		category, id, err := rooms.Parse(f.Room)
		if err != nil {
			return "", err
		}
		return rooms.New(category, id)
	}
	if f.Category == "" || f.ID == "" {
		return "", fmt.Errorf("%s requires room, or category and id", f.Action)
	}
	return rooms.New(rooms.Category(f.Category), string(f.ID))
}

// ServerFrame is a direct reply to one client.
type ServerFrame struct {
	Type string      `json:"type"`
	Room rooms.Name  `json:"room,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

func (f ServerFrame) marshal() ([]byte, error) {
	return json.Marshal(f)
}

type welcomeData struct {
	ConnectionID uint64 `json:"connection_id"`
}

type errorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleFrame decodes, validates and dispatches one client frame.
// Bad frames get an error reply; the connection stays open.
func (c *Client) handleFrame(data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		metrics.RecordWSFrame("invalid")
		c.replyError(ErrCodeInvalidJSON, "frame must be a JSON object")
		return
	}
	if verr := validation.ValidateStruct(&frame); verr != nil {
		metrics.RecordWSFrame("invalid")
		apiErr := verr.ToAPIError()
		metrics.RecordWSError(apiErr.Code)
		c.reply(ServerFrame{Type: TypeError, Data: errorData{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}})
		return
	}
	metrics.RecordWSFrame(frame.Action)

	switch frame.Action {
	case ActionJoin:
		c.handleJoin(&frame)
	case ActionLeave:
		c.handleLeave(&frame)
	case ActionPublish:
		c.handlePublish(&frame)
	case ActionPing:
		c.reply(ServerFrame{Type: TypePong})
	}
}

func (c *Client) handleJoin(frame *ClientFrame) {
	room, err := frame.room()
	if err != nil {
		c.replyError(ErrCodeInvalidRoom, err.Error())
		return
	}
	if _, err := c.hub.Join(c.id, room); err != nil {
		// The connection is already being torn down.
		return
	}
	logging.Ctx(c.ctx).Debug().Str("room", room.String()).Msg("client joined room")
	c.reply(ServerFrame{Type: TypeJoined, Room: room})
}

func (c *Client) handleLeave(frame *ClientFrame) {
	room, err := frame.room()
	if err != nil {
		c.replyError(ErrCodeInvalidRoom, err.Error())
		return
	}
	c.hub.Leave(c.id, room)
	c.reply(ServerFrame{Type: TypeLeft, Room: room})
}

func (c *Client) handlePublish(frame *ClientFrame) {
	var opts []relay.BroadcastOption
	if frame.ExcludeSelf {
		opts = append(opts, relay.ExcludeConn(c.id))
	}
	res := c.pub.PublishRaw(c.ctx, frame.Event, opts...)
	c.reply(ServerFrame{Type: TypePublished, Room: res.Room, Data: res})
}
