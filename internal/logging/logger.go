// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Output formats accepted in Config.Format and LOG_FORMAT.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ServiceName is attached to every line as "service".
const ServiceName = "campus-relay"

// levels is the set of LOG_LEVEL values the relay accepts.
var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
}

// Config is the logging section of the relay configuration, as produced by
// config.Config.LoggingSettings. Zero fields fall back to DefaultConfig.
type Config struct {
	Level  string // a key of the relay level set, case-insensitive
	Format string // FormatJSON or FormatConsole
	Caller bool   // add file:line to each line

	// Timestamp adds a "time" field. Tests usually leave it off.
	Timestamp bool

	Output io.Writer // os.Stderr when nil
}

// DefaultConfig returns the settings used before Init is called.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    FormatJSON,
		Timestamp: true,
		Output:    os.Stderr,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Level == "" {
		c.Level = d.Level
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Output == nil {
		c.Output = d.Output
	}
	return c
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging must work before main calls Init
func init() {
	log = build(DefaultConfig())
}

// Init replaces the global logger. Safe to call more than once.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	log = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	cfg = cfg.withDefaults()
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	lc := zerolog.New(out).With().Str("service", ServiceName)
	if cfg.Timestamp {
		lc = lc.Timestamp()
	}
	if cfg.Caller {
		lc = lc.Caller()
	}
	return lc.Logger()
}

// parseLevel maps a level name to zerolog, falling back to info.
func parseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether level is in the relay level set.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(level)]
	return ok
}

// ValidFormat reports whether format is FormatJSON or FormatConsole.
func ValidFormat(format string) bool {
	return format == FormatJSON || format == FormatConsole
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger, usually with NewTestLogger output.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// Debug starts a debug line on the global logger.
//
//	logging.Debug().Uint64("conn_id", id).Msg("connection registered")
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info line on the global logger.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warn line on the global logger.
//
//	logging.Warn().Str("event_type", t).Msg("event rejected")
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts an error line on the global logger.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal starts a fatal line; the process exits after it is written.
// Only cmd/server uses it, for startup failures.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}

// NewTestLogger returns a JSON logger writing to w, for SetLogger in tests.
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Str("service", ServiceName).Logger()
}
