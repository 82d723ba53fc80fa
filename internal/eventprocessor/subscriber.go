// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
)

// bridgeAckWait bounds how long a delivered message may stay unacked. The
// bridge acks right after broadcasting, so this only trips on a stuck relay.
const bridgeAckWait = 30 * time.Second

// Subscriber is the bridge's core NATS subscription. With an empty
// QueueGroup every relay instance receives every event.
type Subscriber struct {
	message.Subscriber
	queueGroup string
}

// NewSubscriber connects a watermill core NATS subscriber.
func NewSubscriber(cfg *Config, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   bridgeAckWait,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      connOptions(subscriberConnName, cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        coreNATS,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return &Subscriber{Subscriber: sub, queueGroup: cfg.QueueGroup}, nil
}

// Shared reports whether instances split the stream through a queue group
// instead of each receiving every message.
func (s *Subscriber) Shared() bool {
	return s.queueGroup != ""
}
