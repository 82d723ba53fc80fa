// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package services

import (
	"context"
)

// ContextHub is satisfied by *relay.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the relay hub's sampling loop. When the tree stops, the
// hub closes every connection before Serve returns.
type HubService struct {
	hub ContextHub
}

// NewHubService wraps hub.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture's log events.
func (s *HubService) String() string {
	return "relay-hub"
}
