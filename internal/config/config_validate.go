// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/campus-relay/internal/logging"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateWebSocket,
		c.validateNATS,
		c.validateSecurity,
		c.validateLogging,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return requirePositive(
		namedDuration{"HTTP_READ_TIMEOUT", c.Server.ReadTimeout},
		namedDuration{"HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout},
		namedDuration{"HTTP_IDLE_TIMEOUT", c.Server.IdleTimeout},
		namedDuration{"SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout},
	)
}

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	if err := requirePositive(
		namedDuration{"WS_WRITE_WAIT", ws.WriteWait},
		namedDuration{"WS_PONG_WAIT", ws.PongWait},
		namedDuration{"WS_PING_PERIOD", ws.PingPeriod},
		namedDuration{"WS_HANDSHAKE_TIMEOUT", ws.HandshakeTimeout},
	); err != nil {
		return err
	}
	if ws.PingPeriod >= ws.PongWait {
		return fmt.Errorf("WS_PING_PERIOD (%v) must be less than WS_PONG_WAIT (%v)", ws.PingPeriod, ws.PongWait)
	}
	if ws.MaxMessageSize <= 0 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be positive")
	}
	if ws.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if ws.InboundRate < 0 || ws.InboundBurst < 0 {
		return fmt.Errorf("WS_INBOUND_RATE and WS_INBOUND_BURST must not be negative")
	}
	if ws.MaxEventBytes <= 0 {
		return fmt.Errorf("MAX_EVENT_BYTES must be positive")
	}
	if strings.TrimSpace(ws.IdentityHeader) == "" {
		return fmt.Errorf("IDENTITY_HEADER must not be empty")
	}
	return nil
}

// validateNATS validates the backbone settings (only if enabled).
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer {
		if c.NATS.URL == "" {
			return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true without NATS_EMBEDDED")
		}
		u, err := url.Parse(c.NATS.URL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("NATS_URL %q is not a valid URL", c.NATS.URL)
		}
	}
	cfg := c.Backbone()
	return cfg.Validate()
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("LOG_FORMAT must be %s or %s, got %q",
			logging.FormatJSON, logging.FormatConsole, c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if c.Supervisor.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_DECAY must be positive")
	}
	return requirePositive(
		namedDuration{"SUPERVISOR_FAILURE_BACKOFF", c.Supervisor.FailureBackoff},
		namedDuration{"SUPERVISOR_SHUTDOWN_TIMEOUT", c.Supervisor.ShutdownTimeout},
	)
}

type namedDuration struct {
	name  string
	value time.Duration
}

// requirePositive reports the first non-positive duration.
func requirePositive(durations ...namedDuration) error {
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}
	return nil
}
