// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/campus-relay/internal/events"
)

// Config holds backbone settings. internal/config maps its nats section onto it.
type Config struct {
	// URL of the NATS server. Ignored when Embedded is set.
	URL string

	// SubjectPrefix is the first subject token; events travel on
	// "<prefix>.<type>" and the bridge subscribes to "<prefix>.>".
	SubjectPrefix string

	// QueueGroup is empty in normal deployments so every relay instance
	// receives every event. Setting it load-balances events across
	// instances, which is only correct when clients are pinned to one instance.
	QueueGroup string

	// SubscribersCount is the number of consuming goroutines.
	//
	// Values above 1 reorder events relative to publish order and require
	// a QueueGroup.
	SubscribersCount int

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
	CloseTimeout    time.Duration

	// Embedded starts an in-process nats-server and connects to it.
	Embedded bool
	Server   ServerConfig

	CircuitBreaker CircuitBreakerConfig
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		URL:              "nats://127.0.0.1:4222",
		SubjectPrefix:    "campus",
		SubscribersCount: 1,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		CloseTimeout:     10 * time.Second,
		Embedded:         false,
		Server:           DefaultServerConfig(),
		CircuitBreaker:   DefaultCircuitBreakerConfig("nats-publisher"),
	}
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validateSubjectToken(c.SubjectPrefix); err != nil {
		return fmt.Errorf("%w: subject prefix: %w", ErrInvalidConfig, err)
	}
	if !c.Embedded && strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("%w: url is required without an embedded server", ErrInvalidConfig)
	}
	if c.SubscribersCount < 1 {
		return fmt.Errorf("%w: subscribers count must be at least 1", ErrInvalidConfig)
	}
	if c.SubscribersCount > 1 && c.QueueGroup == "" {
		return fmt.Errorf("%w: subscribers count above 1 requires a queue group", ErrInvalidConfig)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("%w: close timeout must be positive", ErrInvalidConfig)
	}
	if c.Embedded && (c.Server.Port < -1 || c.Server.Port > 65535) {
		return fmt.Errorf("%w: embedded server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.CircuitBreaker.FailureThreshold == 0 {
		return fmt.Errorf("%w: circuit breaker failure threshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// validateSubjectToken accepts dotted NATS subject tokens without wildcards.
func validateSubjectToken(prefix string) error {
	if prefix == "" {
		return errors.New("empty")
	}
	if strings.HasPrefix(prefix, ".") || strings.HasSuffix(prefix, ".") || strings.Contains(prefix, "..") {
		return fmt.Errorf("%q has an empty token", prefix)
	}
	if strings.ContainsAny(prefix, "*> \t\r\n") {
		return fmt.Errorf("%q contains wildcards or whitespace", prefix)
	}
	return nil
}

// WildcardSubject is the subject the bridge subscribes to.
func (c *Config) WildcardSubject() string {
	return c.SubjectPrefix + ".>"
}

// Subject is the subject events of type t are published on.
func (c *Config) Subject(t events.Type) string {
	return c.SubjectPrefix + "." + string(t)
}

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host string

	// Port -1 picks a random free port.
	Port int

	MaxPayload   int32
	ReadyTimeout time.Duration
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "127.0.0.1",
		Port:         4222,
		MaxPayload:   1024 * 1024, // 1MB, the default NATS limit
		ReadyTimeout: 10 * time.Second,
	}
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Consecutive failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
