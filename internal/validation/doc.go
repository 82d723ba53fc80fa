// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide. Field names in error
// messages are taken from json tags, so a WebSocket client that sent
// {"action":"dance"} is told "action must be one of: ...".
//
// # Custom tags
//
//	room_category  known room category tag
//	room_name      canonical "<category>_<id>" room name
//	event_type     type present in the event registry
//	room_id        non-blank id no longer than rooms.MaxIDLength
//
// # Usage
//
//	type joinFrame struct {
//	    Category string `json:"category" validate:"required,room_category"`
//	    ID       string `json:"id" validate:"required,room_id"`
//	}
//
//	if verr := validation.ValidateStruct(&f); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // apiErr.Code == "VALIDATION_ERROR"
//	}
package validation
