// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/campus-relay/internal/logging"
)

// Backbone holds every NATS component for lifecycle management.
type Backbone struct {
	server     *EmbeddedServer
	subscriber *Subscriber
	publisher  *Publisher
	bridge     *Bridge
	url        string

	mu       sync.Mutex
	shutdown bool
}

// NewBackbone starts the embedded server when configured, connects the
// subscriber and publisher, and prepares a bridge into sink. Nothing is
// consumed until Start.
func NewBackbone(cfg Config, sink EventSink) (*Backbone, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Backbone{url: cfg.URL}

	if cfg.Embedded {
		srv, err := NewEmbeddedServer(&cfg.Server)
		if err != nil {
			return nil, err
		}
		b.server = srv
		b.url = srv.ClientURL()
		cfg.URL = b.url
		logging.Info().Str("url", b.url).Msg("Embedded NATS server started")
	} else {
		logging.Info().Str("url", b.url).Msg("Using external NATS server")
	}

	logger := NewWatermillLogger()

	sub, err := NewSubscriber(&cfg, logger)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	b.subscriber = sub
	if sub.Shared() {
		logging.Warn().Str("queue_group", cfg.QueueGroup).
			Msg("Backbone queue group set: each event reaches only one relay instance")
	}

	pub, err := NewPublisher(&cfg, logger)
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	b.publisher = pub

	bridge, err := NewBridge(sub, sink, cfg.WildcardSubject())
	if err != nil {
		b.Shutdown(context.Background())
		return nil, err
	}
	b.bridge = bridge

	return b, nil
}

// Start begins consuming the backbone.
func (b *Backbone) Start(ctx context.Context) error {
	b.mu.Lock()
	closed := b.shutdown
	b.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: backbone already shut down", ErrInvalidConfig)
	}
	return b.bridge.Start(ctx)
}

// Shutdown stops the bridge, closes the NATS connections and stops the
// embedded server, in that order. It is safe to call more than once.
func (b *Backbone) Shutdown(ctx context.Context) {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return
	}
	b.shutdown = true
	b.mu.Unlock()

	if b.bridge != nil {
		b.bridge.Stop()
	}
	if b.subscriber != nil {
		if err := b.subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS subscriber")
		}
	}
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing NATS publisher")
		}
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("embedded NATS server shutdown")
		}
	}
	logging.Info().Msg("NATS backbone stopped")
}

// IsRunning reports whether the bridge is consuming.
func (b *Backbone) IsRunning() bool {
	return b.bridge != nil && b.bridge.IsRunning()
}

// Publisher returns the backbone publisher for Go domain services.
func (b *Backbone) Publisher() *Publisher {
	return b.publisher
}

// URL returns the NATS URL in use.
func (b *Backbone) URL() string {
	return b.url
}
