// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultHealthInterval is how often the backbone subscription is checked.
const DefaultHealthInterval = 5 * time.Second

// ErrSubscriptionLost is returned when the backbone stops consuming on its own.
var ErrSubscriptionLost = errors.New("backbone subscription ended")

// BackboneRunner is satisfied by *eventprocessor.Backbone.
type BackboneRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// BackboneService adapts the backbone's Start/Shutdown lifecycle to suture:
//  1. Start subscribes to the event subjects
//  2. The subscription is polled; if it dies Serve returns so suture resubscribes
//  3. On cancel the backbone is shut down with a fresh timeout context
type BackboneService struct {
	backbone        BackboneRunner
	shutdownTimeout time.Duration
	healthInterval  time.Duration
}

// NewBackboneService wraps backbone.
func NewBackboneService(backbone BackboneRunner, shutdownTimeout time.Duration) *BackboneService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &BackboneService{
		backbone:        backbone,
		shutdownTimeout: shutdownTimeout,
		healthInterval:  DefaultHealthInterval,
	}
}

// WithHealthInterval overrides the subscription check interval.
func (s *BackboneService) WithHealthInterval(d time.Duration) *BackboneService {
	if d > 0 {
		s.healthInterval = d
	}
	return s
}

// Serve implements suture.Service.
func (s *BackboneService) Serve(ctx context.Context) error {
	if err := s.backbone.Start(ctx); err != nil {
		return fmt.Errorf("backbone start failed: %w", err)
	}

	ticker := time.NewTicker(s.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			s.backbone.Shutdown(shutdownCtx)
			cancel()
			return ctx.Err()
		case <-ticker.C:
			if !s.backbone.IsRunning() {
				return ErrSubscriptionLost
			}
		}
	}
}

// String implements fmt.Stringer for suture's log events.
func (s *BackboneService) String() string {
	return "nats-backbone"
}
