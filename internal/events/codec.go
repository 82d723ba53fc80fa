// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package events

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/rooms"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"

	scopeInterestGroup = string(rooms.CategoryInterestGroup)
)

// Decode parses a producer envelope into a typed Event.
//
// The envelope is a JSON object carrying "type", the identifier field the
// type declares, and optionally "payload". When "payload" is present it is the
// data delivered to subscribers; otherwise the whole object is delivered.
// Identifiers may be JSON strings or integers; integers are canonicalized by
// rooms.NumericID so 7 and "7" address the same room.
func Decode(data []byte) (Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedEvent)
	}

	rawType, ok := fields[fieldType]
	if !ok {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	var t Type
	if err := json.Unmarshal(rawType, &t); err != nil {
		return nil, fmt.Errorf("%w: type must be a string", ErrMalformedEvent)
	}

	spec, ok := Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	id, err := extractID(fields[spec.IDField])
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s %v", ErrMissingID, t, spec.IDField, err)
	}

	payload := json.RawMessage(data)
	if p, ok := fields[fieldPayload]; ok {
		payload = p
	}
	payload = compact(payload)

	return build(spec, id, scopeOf(fields), payload)
}

func build(spec Spec, id, scope string, payload json.RawMessage) (Event, error) {
	switch spec.Type {
	case TypeNotification:
		return NewNotification(id, payload)
	case TypeGroupMessage:
		if scope == scopeInterestGroup {
			return NewInterestGroupMessage(id, payload)
		}
		return NewGroupMessage(id, payload)
	case TypeEventRSVPUpdate:
		return NewRSVPUpdate(id, payload)
	case TypeCampaignCreated:
		return NewCampaignCreated(id, payload)
	case TypeDonationReceived:
		return NewDonationReceived(id, payload)
	case TypeGroupJoinRequest:
		return NewGroupJoinRequest(id, payload)
	case TypeGroupRequestApproved:
		return NewGroupRequestApproved(id, payload)
	case TypeMentorshipMessage:
		return NewMentorshipMessage(id, payload)
	case TypeNewPost:
		return NewPost(id, payload)
	case TypeNewComment:
		return NewComment(id, payload)
	case TypePostReaction:
		return NewPostReaction(id, payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
	}
}

func extractID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("is absent")
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errors.New("is not a valid string")
		}
		if strings.TrimSpace(s) == "" {
			return "", errors.New("is empty")
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		id, err := rooms.NumericID(string(raw))
		if err != nil {
			return "", errors.New("must be an integer")
		}
		return id, nil
	case 'n':
		return "", errors.New("is null")
	default:
		return "", errors.New("must be a string or number")
	}
}

func scopeOf(fields map[string]json.RawMessage) string {
	raw, ok := fields[FieldScope]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Encode renders ev as a producer envelope that Decode accepts.
func Encode(ev Event) ([]byte, error) {
	spec, ok := Lookup(ev.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, ev.Type())
	}
	out := map[string]any{
		fieldType:    ev.Type(),
		spec.IDField: ev.TargetID(),
	}
	if gm, ok := ev.(*GroupMessage); ok && gm.InterestGroup {
		out[FieldScope] = scopeInterestGroup
	}
	if p := ev.Payload(); len(p) > 0 {
		out[fieldPayload] = p
	}
	return json.Marshal(out)
}

// Envelope is the frame every room member receives for a broadcast.
type Envelope struct {
	Type Type            `json:"type"`
	Room rooms.Name      `json:"room"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Frame encodes the broadcast envelope for ev once, so every recipient gets the same bytes.
func Frame(ev Event) ([]byte, error) {
	return json.Marshal(Envelope{Type: ev.Type(), Room: ev.Room(), Data: ev.Payload()})
}
