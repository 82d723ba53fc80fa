// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/events"
	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/validation"
)

// Publish routes reported in PublishResponse.Route.
const (
	RouteLocal    = "local"
	RouteBackbone = "backbone"
)

// PublishResponse is the data of a 202 from POST /api/v1/events.
//
// Events routed through the backbone are delivered asynchronously on every
// instance, so Delivered and Recipients stay zero for them.
type PublishResponse struct {
	relay.Result
	Route string `json:"route"`
}

// publishEnvelope is the part of a producer envelope checked before an event
// may leave this instance.
type publishEnvelope struct {
	Type string `json:"type" validate:"required,event_type"`
}

// PublishEvent relays one event envelope to its room.
//
// Well-formed JSON always gets 202; whether the relay accepted and delivered
// the event is reported in the body. Bodies that are empty, oversized or not
// JSON are rejected before reaching the relay.
func (h *Handler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.PayloadTooLarge("Event exceeds " + strconv.FormatInt(h.config.MaxEventBytes, 10) + " bytes")
			return
		}
		rw.BadRequest("Failed to read request body")
		return
	}
	if len(body) == 0 {
		rw.BadRequest("Request body is empty")
		return
	}
	if !json.Valid(body) {
		rw.BadRequest("Request body is not valid JSON")
		return
	}

	if h.canForward() {
		if resp, ok := h.forward(r.Context(), body); ok {
			rw.Accepted(resp)
			return
		}
	}

	result := h.publisher.PublishRaw(r.Context(), body)

	logging.Ctx(r.Context()).Debug().
		Str("event_type", string(result.Type)).
		Str("room", string(result.Room)).
		Bool("accepted", result.Accepted).
		Int("recipients", result.Recipients).
		Msg("event published over HTTP")

	rw.Accepted(PublishResponse{Result: result, Route: RouteLocal})
}

func (h *Handler) canForward() bool {
	if h.forwarder == nil {
		return false
	}
	return h.backbone == nil || h.backbone.IsRunning()
}

// forward hands body to the backbone. It reports false when the event must
// instead go through the local relay: invalid envelopes are rejected there
// with a reason, and backbone failures (including an open breaker) fall back
// to local delivery.
func (h *Handler) forward(ctx context.Context, body []byte) (PublishResponse, bool) {
	var env publishEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PublishResponse{}, false
	}
	if verr := validation.ValidateStruct(&env); verr != nil {
		logging.Ctx(ctx).Debug().Str("reason", verr.Error()).Msg("envelope kept off the backbone")
		return PublishResponse{}, false
	}
	ev, err := events.Decode(body)
	if err != nil {
		return PublishResponse{}, false
	}

	if err := h.forwarder.PublishRaw(ctx, body); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("event_type", string(ev.Type())).
			Msg("backbone publish failed, delivering on this instance only")
		return PublishResponse{}, false
	}

	logging.Ctx(ctx).Debug().
		Str("event_type", string(ev.Type())).
		Str("room", ev.Room().String()).
		Msg("event forwarded to backbone")

	return PublishResponse{
		Result: relay.Result{Accepted: true, Type: ev.Type(), Room: ev.Room()},
		Route:  RouteBackbone,
	}, true
}
