// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/campus-relay/internal/events"
	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
)

// Message metadata keys set by Publisher.
const (
	MetadataEventType     = "event_type"
	MetadataRoom          = "room"
	MetadataCorrelationID = "correlation_id"
)

// Publish outcomes recorded in metrics.
const (
	publishSuccess     = "success"
	publishError       = "error"
	publishCircuitOpen = "circuit_open"
	publishRejected    = "rejected"
)

// Publisher lets Go domain services emit events onto the backbone with
// circuit breaker protection.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	config         Config

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates a core NATS publisher with a circuit breaker built
// from cfg.CircuitBreaker.
func NewPublisher(cfg *Config, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: connOptions(publisherConnName, cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   coreNATS,
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewPublisherWith(pub, cfg), nil
}

// NewPublisherWith wraps an existing Watermill publisher.
func NewPublisherWith(pub message.Publisher, cfg *Config) *Publisher {
	return &Publisher{
		publisher:      pub,
		circuitBreaker: NewCircuitBreaker(cfg.CircuitBreaker),
		config:         *cfg,
	}
}

// Publish sends ev on "<prefix>.<type>".
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	if ev == nil {
		metrics.RecordNATSPublish(publishRejected)
		return fmt.Errorf("publish: %w", events.ErrMalformedEvent)
	}
	data, err := events.Encode(ev)
	if err != nil {
		metrics.RecordNATSPublish(publishRejected)
		return fmt.Errorf("encode %s event: %w", ev.Type(), err)
	}
	return p.publish(ctx, ev, data)
}

// PublishRaw validates a producer envelope and forwards it unchanged.
// Invalid envelopes are rejected here rather than on every relay instance.
func (p *Publisher) PublishRaw(ctx context.Context, data []byte) error {
	ev, err := events.Decode(data)
	if err != nil {
		metrics.RecordNATSPublish(publishRejected)
		return err
	}
	return p.publish(ctx, ev, data)
}

func (p *Publisher) publish(ctx context.Context, ev events.Event, data []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataEventType, string(ev.Type()))
	msg.Metadata.Set(MetadataRoom, ev.Room().String())
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	topic := p.config.Subject(ev.Type())
	_, err := p.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(topic, msg)
	})

	switch {
	case err == nil:
		metrics.RecordNATSPublish(publishSuccess)
		metrics.RecordCircuitBreakerRequest(p.circuitBreaker.Name(), "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNATSPublish(publishCircuitOpen)
		metrics.RecordCircuitBreakerRequest(p.circuitBreaker.Name(), "rejected")
	default:
		metrics.RecordNATSPublish(publishError)
		metrics.RecordCircuitBreakerRequest(p.circuitBreaker.Name(), "failure")
	}
	if err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("subject", topic).
			Str("event_type", string(ev.Type())).
			Msg("backbone publish failed")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// BreakerState returns the circuit breaker state name.
func (p *Publisher) BreakerState() string {
	return CircuitBreakerState(p.circuitBreaker)
}

// Close shuts down the publisher. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
