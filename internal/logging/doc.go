// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

// Package logging provides the zerolog-based structured logger used across the relay.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("connections", n).Msg("relay started")
//	logging.Ctx(ctx).Warn().Str("event_type", t).Msg("event rejected")
//
// # Context
//
// HTTP requests carry a request ID (set by the API middleware) and WebSocket
// connections carry their relay connection ID. Ctx adds both to every line:
//
//	ctx = logging.ContextWithConnID(ctx, uint64(id))
//	logging.Ctx(ctx).Debug().Str("room", room).Msg("joined")
//
// # slog
//
// NewSlogLogger returns a *slog.Logger backed by the same zerolog output; the
// supervisor tree hands it to sutureslog.
//
// # Untrusted input
//
// Room names, user identifiers and event types arrive from clients. Pass them
// through SanitizeValue (or SanitizeUserID) before logging.
package logging
