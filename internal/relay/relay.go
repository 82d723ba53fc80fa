// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/campus-relay/internal/events"
	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// Rejection reasons reported in Result.Reason.
const (
	ReasonUnknownType = "unknown_type"
	ReasonMissingID   = "missing_id"
	ReasonMalformed   = "malformed"
	ReasonEncode      = "encode_failed"
)

// Broadcaster is the part of Hub the relay needs.
type Broadcaster interface {
	Broadcast(room rooms.Name, frame []byte, opts ...BroadcastOption) int
}

// Publisher is what domain services depend on to emit events.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event, opts ...BroadcastOption) Result
}

// Result reports what happened to one published event.
//
// Accepted is true when the event passed validation and was broadcast.
// Delivered is true when at least one connection received it; publishing to a
// room nobody has joined is accepted but not delivered. Rejected events carry a
// Reason and are never broadcast.
type Result struct {
	Accepted   bool        `json:"accepted"`
	Delivered  bool        `json:"delivered"`
	Recipients int         `json:"recipients"`
	Type       events.Type `json:"type,omitempty"`
	Room       rooms.Name  `json:"room,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

// Relay validates events and routes them to their room.
// It holds no global state; construct one per Hub and pass it to whatever needs to publish.
type Relay struct {
	hub    Broadcaster
	logger zerolog.Logger
}

// New creates a Relay that broadcasts through hub.
func New(hub Broadcaster) *Relay {
	return &Relay{
		hub:    hub,
		logger: logging.WithComponent("relay"),
	}
}

// Publish broadcasts a typed event to its room. It never returns an error and
// never panics on bad input; problems are logged and reported in Result.
func (r *Relay) Publish(ctx context.Context, ev events.Event, opts ...BroadcastOption) Result {
	if ev == nil || ev.Room() == "" {
		return r.reject(ctx, "", ReasonMalformed, errors.New("event has no room"))
	}

	frame, err := events.Frame(ev)
	if err != nil {
		return r.reject(ctx, ev.Type(), ReasonEncode, err)
	}

	recipients := r.hub.Broadcast(ev.Room(), frame, opts...)
	res := Result{
		Accepted:   true,
		Delivered:  recipients > 0,
		Recipients: recipients,
		Type:       ev.Type(),
		Room:       ev.Room(),
	}

	outcome := metrics.OutcomeDelivered
	if !res.Delivered {
		outcome = metrics.OutcomeNoRecipients
	}
	metrics.RecordPublish(string(ev.Type()), outcome)

	r.log(ctx).Debug().
		Str("event_type", string(ev.Type())).
		Str("room", ev.Room().String()).
		Int("recipients", recipients).
		Msg("event published")
	return res
}

// PublishRaw decodes a producer envelope and publishes it.
func (r *Relay) PublishRaw(ctx context.Context, data []byte, opts ...BroadcastOption) Result {
	ev, err := events.Decode(data)
	if err != nil {
		return r.reject(ctx, peekType(data), reasonFor(err), err)
	}
	return r.Publish(ctx, ev, opts...)
}

func (r *Relay) reject(ctx context.Context, t events.Type, reason string, err error) Result {
	outcome := metrics.OutcomeRejectedMalformed
	switch reason {
	case ReasonUnknownType:
		outcome = metrics.OutcomeRejectedUnknownType
	case ReasonMissingID:
		outcome = metrics.OutcomeRejectedMissingID
	}
	metrics.RecordPublish(string(t), outcome)

	r.log(ctx).Warn().
		Str("event_type", logging.SanitizeValue(string(t))).
		Str("reason", reason).
		Err(err).
		Msg("event rejected")
	return Result{Type: t, Reason: reason}
}

// log returns the relay logger enriched with the request and connection ids in ctx.
func (r *Relay) log(ctx context.Context) *zerolog.Logger {
	return logging.Ctx(logging.ContextWithLogger(ctx, r.logger))
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, events.ErrUnknownType):
		return ReasonUnknownType
	case errors.Is(err, events.ErrMissingID), errors.Is(err, rooms.ErrEmptyID):
		return ReasonMissingID
	default:
		return ReasonMalformed
	}
}

// peekType extracts the type tag for logging only; it is empty when the
// envelope is not an object with a string type.
func peekType(data []byte) events.Type {
	var head struct {
		Type events.Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return ""
	}
	return head.Type
}
