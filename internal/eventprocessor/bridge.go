// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/relay"
)

// Source delivers backbone messages. *Subscriber and Watermill's
// gochannel.GoChannel both satisfy it.
type Source interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// EventSink receives raw producer envelopes; *relay.Relay implements it.
type EventSink interface {
	PublishRaw(ctx context.Context, data []byte, opts ...relay.BroadcastOption) relay.Result
}

// Bridge forwards backbone messages into the relay.
type Bridge struct {
	source Source
	sink   EventSink
	topic  string
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

// NewBridge creates a bridge consuming topic from source.
func NewBridge(source Source, sink EventSink, topic string) (*Bridge, error) {
	if source == nil || sink == nil {
		return nil, fmt.Errorf("%w: bridge needs a source and a sink", ErrInvalidConfig)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: bridge topic is empty", ErrInvalidConfig)
	}
	return &Bridge{
		source: source,
		sink:   sink,
		topic:  topic,
		logger: logging.WithComponent("nats-bridge"),
	}, nil
}

// Start subscribes and begins forwarding. Calling Start on a running
// bridge is a no-op.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	if b.cancel != nil {
		// The previous subscription ended on its own.
		b.cancel()
	}

	runCtx, cancel := context.WithCancel(ctx)
	messages, err := b.source.Subscribe(runCtx, b.topic)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}

	b.running = true
	b.cancel = cancel
	b.doneCh = make(chan struct{})
	go b.processMessages(runCtx, messages, b.doneCh)

	b.logger.Info().Str("topic", b.topic).Msg("NATS to relay bridge started")
	return nil
}

// Stop cancels the subscription and waits for the forwarding loop to exit.
func (b *Bridge) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.doneCh
	b.cancel = nil
	b.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	b.logger.Info().Msg("NATS to relay bridge stopped")
}

// IsRunning reports whether the forwarding loop is active.
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Topic returns the subscribed topic.
func (b *Bridge) Topic() string {
	return b.topic
}

func (b *Bridge) processMessages(ctx context.Context, messages <-chan *message.Message, done chan struct{}) {
	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage relays one message. Messages are always acked: a rejected
// event is rejected on every redelivery, and core NATS does not redeliver.
func (b *Bridge) handleMessage(ctx context.Context, msg *message.Message) relay.Result {
	start := time.Now()
	defer msg.Ack()

	ctx = logging.ContextWithLogger(ctx, b.logger)
	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	res := b.sink.PublishRaw(ctx, msg.Payload)
	if !res.Accepted {
		metrics.RecordNATSFailed(res.Reason)
		logging.Ctx(ctx).Debug().
			Str("message_uuid", msg.UUID).
			Str("reason", res.Reason).
			Msg("backbone message rejected")
		return res
	}

	metrics.RecordNATSConsume(time.Since(start))
	return res
}
