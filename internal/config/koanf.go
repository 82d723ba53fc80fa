// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/campus-relay/config.yaml",
	"/etc/campus-relay/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                 "0.0.0.0",
			Port:                 8080,
			ReadTimeout:          15 * time.Second,
			WriteTimeout:         15 * time.Second,
			IdleTimeout:          120 * time.Second,
			ShutdownTimeout:      10 * time.Second,
			SlowRequestThreshold: time.Second,
		},
		WebSocket: WebSocketConfig{
			WriteWait:        10 * time.Second,
			PongWait:         60 * time.Second,
			PingPeriod:       54 * time.Second,
			MaxMessageSize:   512 * 1024, // 512 KB
			SendBuffer:       256,
			InboundRate:      20,
			InboundBurst:     40,
			HandshakeTimeout: 10 * time.Second,
			IdentityHeader:   "X-User-ID",
			MaxEventBytes:    64 * 1024,
		},
		NATS: NATSConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   false,
			EmbeddedHost:     "127.0.0.1",
			EmbeddedPort:     4222,
			MaxPayload:       1024 * 1024,
			SubjectPrefix:    "campus",
			QueueGroup:       "",
			SubscribersCount: 1,
			MaxReconnects:    -1, // Unlimited
			ReconnectWait:    2 * time.Second,
			CloseTimeout:     10 * time.Second,

			CircuitBreakerMaxRequests:      3,
			CircuitBreakerInterval:         30 * time.Second,
			CircuitBreakerTimeout:          10 * time.Second,
			CircuitBreakerFailureThreshold: 5,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: built-in defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_read_timeout":      "server.read_timeout",
	"http_write_timeout":     "server.write_timeout",
	"http_idle_timeout":      "server.idle_timeout",
	"shutdown_timeout":       "server.shutdown_timeout",
	"slow_request_threshold": "server.slow_request_threshold",

	// WebSocket
	"ws_write_wait":        "websocket.write_wait",
	"ws_pong_wait":         "websocket.pong_wait",
	"ws_ping_period":       "websocket.ping_period",
	"ws_max_message_size":  "websocket.max_message_size",
	"ws_send_buffer":       "websocket.send_buffer",
	"ws_inbound_rate":      "websocket.inbound_rate",
	"ws_inbound_burst":     "websocket.inbound_burst",
	"ws_handshake_timeout": "websocket.handshake_timeout",
	"identity_header":      "websocket.identity_header",
	"max_event_bytes":      "websocket.max_event_bytes",

	// NATS
	"nats_enabled":                   "nats.enabled",
	"nats_url":                       "nats.url",
	"nats_embedded":                  "nats.embedded_server",
	"nats_embedded_host":             "nats.embedded_host",
	"nats_embedded_port":             "nats.embedded_port",
	"nats_max_payload":               "nats.max_payload",
	"nats_subject_prefix":            "nats.subject_prefix",
	"nats_queue_group":               "nats.queue_group",
	"nats_subscribers":               "nats.subscribers_count",
	"nats_max_reconnects":            "nats.max_reconnects",
	"nats_reconnect_wait":            "nats.reconnect_wait",
	"nats_close_timeout":             "nats.close_timeout",
	"nats_breaker_max_requests":      "nats.circuit_breaker_max_requests",
	"nats_breaker_interval":          "nats.circuit_breaker_interval",
	"nats_breaker_timeout":           "nats.circuit_breaker_timeout",
	"nats_breaker_failure_threshold": "nats.circuit_breaker_failure_threshold",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - NATS_ENABLED -> nats.enabled
//   - CORS_ORIGINS -> security.cors_origins
//
// Unmapped variables return "" and are skipped, so unrelated environment
// never leaks into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
