// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/campus-relay/internal/eventprocessor"
	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/websocket"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	NATS       NATSConfig       `koanf:"nats"` // Optional: cross-instance event backbone
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// SlowRequestThreshold logs requests slower than this at warn.
	SlowRequestThreshold time.Duration `koanf:"slow_request_threshold"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WebSocketConfig holds client connection settings.
type WebSocketConfig struct {
	WriteWait        time.Duration `koanf:"write_wait"`
	PongWait         time.Duration `koanf:"pong_wait"`
	PingPeriod       time.Duration `koanf:"ping_period"` // Must be less than PongWait
	MaxMessageSize   int64         `koanf:"max_message_size"`
	SendBuffer       int           `koanf:"send_buffer"` // Frames queued before a slow client is dropped
	InboundRate      float64       `koanf:"inbound_rate"`
	InboundBurst     int           `koanf:"inbound_burst"`
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`

	// IdentityHeader is set by the authenticating proxy in front of the relay.
	IdentityHeader string `koanf:"identity_header"`

	// MaxEventBytes bounds POST /api/v1/events bodies.
	MaxEventBytes int64 `koanf:"max_event_bytes"`
}

// NATSConfig holds settings for the optional NATS backbone.
type NATSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	EmbeddedHost     string        `koanf:"embedded_host"`
	EmbeddedPort     int           `koanf:"embedded_port"`
	MaxPayload       int32         `koanf:"max_payload"`
	SubjectPrefix    string        `koanf:"subject_prefix"`
	QueueGroup       string        `koanf:"queue_group"` // Leave empty unless clients are pinned to instances
	SubscribersCount int           `koanf:"subscribers_count"`
	MaxReconnects    int           `koanf:"max_reconnects"`
	ReconnectWait    time.Duration `koanf:"reconnect_wait"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`

	CircuitBreakerMaxRequests      uint32        `koanf:"circuit_breaker_max_requests"`
	CircuitBreakerInterval         time.Duration `koanf:"circuit_breaker_interval"`
	CircuitBreakerTimeout          time.Duration `koanf:"circuit_breaker_timeout"`
	CircuitBreakerFailureThreshold uint32        `koanf:"circuit_breaker_failure_threshold"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"` // seconds
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LoggingSettings converts the logging section for logging.Init.
func (c *Config) LoggingSettings() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}

// WebSocketClient converts the websocket section for websocket.NewClient.
func (c *Config) WebSocketClient() websocket.Config {
	return websocket.Config{
		WriteWait:      c.WebSocket.WriteWait,
		PongWait:       c.WebSocket.PongWait,
		PingPeriod:     c.WebSocket.PingPeriod,
		MaxMessageSize: c.WebSocket.MaxMessageSize,
		SendBuffer:     c.WebSocket.SendBuffer,
		InboundRate:    c.WebSocket.InboundRate,
		InboundBurst:   c.WebSocket.InboundBurst,
	}
}

// Backbone converts the nats section for eventprocessor.NewBackbone.
func (c *Config) Backbone() eventprocessor.Config {
	cfg := eventprocessor.DefaultConfig()
	cfg.URL = c.NATS.URL
	cfg.SubjectPrefix = c.NATS.SubjectPrefix
	cfg.QueueGroup = c.NATS.QueueGroup
	cfg.SubscribersCount = c.NATS.SubscribersCount
	cfg.MaxReconnects = c.NATS.MaxReconnects
	cfg.ReconnectWait = c.NATS.ReconnectWait
	cfg.CloseTimeout = c.NATS.CloseTimeout

	cfg.Embedded = c.NATS.EmbeddedServer
	cfg.Server.Host = c.NATS.EmbeddedHost
	cfg.Server.Port = c.NATS.EmbeddedPort
	if c.NATS.MaxPayload > 0 {
		cfg.Server.MaxPayload = c.NATS.MaxPayload
	}

	cfg.CircuitBreaker.MaxRequests = c.NATS.CircuitBreakerMaxRequests
	cfg.CircuitBreaker.Interval = c.NATS.CircuitBreakerInterval
	cfg.CircuitBreaker.Timeout = c.NATS.CircuitBreakerTimeout
	cfg.CircuitBreaker.FailureThreshold = c.NATS.CircuitBreakerFailureThreshold
	return cfg
}
