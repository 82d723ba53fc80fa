// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/campus-relay/internal/metrics"
)

// Connection names reported to the NATS server.
const (
	publisherConnName  = "campus-relay-publisher"
	subscriberConnName = "campus-relay-bridge"
)

// coreNATS turns JetStream off; the backbone is fire-and-forget.
var coreNATS = wmNats.JetStreamConfig{Disabled: true}

// connOptions builds the nats.go options shared by the publisher and the
// bridge subscriber. Connections keep retrying so a relay can start before
// its broker; disconnects and reconnects are logged and counted per role.
func connOptions(name string, cfg *Config, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name(name),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"connection": name})
			}
			metrics.RecordNATSConnectionEvent(name, "disconnected")
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"connection": name,
				"url":        nc.ConnectedUrl(),
			})
			metrics.RecordNATSConnectionEvent(name, "reconnected")
		}),
	}
}
