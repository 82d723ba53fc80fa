// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/campus-relay/internal/api"
	"github.com/tomtom215/campus-relay/internal/config"
	"github.com/tomtom215/campus-relay/internal/eventprocessor"
	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/supervisor"
	"github.com/tomtom215/campus-relay/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingSettings())
	metrics.SetAppInfo(version)
	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Str("identity_header", cfg.WebSocket.IdentityHeader).
		Msg("Starting campus relay")

	hub := relay.NewHub()
	rel := relay.New(hub)

	var backbone *eventprocessor.Backbone
	if cfg.NATS.Enabled {
		backbone, err = eventprocessor.NewBackbone(cfg.Backbone(), rel)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize NATS backbone")
		}
		logging.Info().
			Str("url", backbone.URL()).
			Bool("embedded", cfg.NATS.EmbeddedServer).
			Str("subject_prefix", cfg.NATS.SubjectPrefix).
			Msg("NATS backbone initialized")
	}

	handler, err := newHandler(cfg, hub, rel, backbone)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create API handler")
	}
	warnAboutSecurity(cfg)

	router := api.NewRouter(handler, api.NewChiMiddleware(chiMiddlewareConfig(cfg))).
		WithSlowRequestThreshold(cfg.Server.SlowRequestThreshold)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMessagingService(services.NewHubService(hub))
	if backbone != nil {
		tree.AddMessagingService(services.NewBackboneService(backbone, cfg.NATS.CloseTimeout))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Campus relay stopped")
}

// newHandler builds the API handler. A nil backbone must reach the handler
// as a nil interface, not a typed nil pointer. With a backbone, HTTP
// publishes go through NATS so every instance delivers them.
func newHandler(cfg *config.Config, hub *relay.Hub, rel *relay.Relay, backbone *eventprocessor.Backbone) (*api.Handler, error) {
	if backbone == nil {
		return api.NewHandler(hub, rel, nil, handlerConfig(cfg))
	}
	h, err := api.NewHandler(hub, rel, backbone, handlerConfig(cfg))
	if err != nil {
		return nil, err
	}
	return h.WithForwarder(backbone.Publisher()), nil
}

func handlerConfig(cfg *config.Config) api.HandlerConfig {
	return api.HandlerConfig{
		CORSOrigins:      cfg.Security.CORSOrigins,
		IdentityHeader:   cfg.WebSocket.IdentityHeader,
		MaxEventBytes:    cfg.WebSocket.MaxEventBytes,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		WebSocket:        cfg.WebSocketClient(),
	}
}

func chiMiddlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mw.CORSAllowedHeaders = append(mw.CORSAllowedHeaders, cfg.WebSocket.IdentityHeader)
	mw.RateLimitRequests = cfg.Security.RateLimitReqs
	mw.RateLimitWindow = cfg.Security.RateLimitWindow
	mw.RateLimitDisabled = cfg.Security.RateLimitDisabled
	return mw
}

func warnAboutSecurity(cfg *config.Config) {
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if len(cfg.Security.CORSOrigins) == 0 {
		logging.Warn().Msg("CORS_ORIGINS is empty: browser WebSocket connections will be rejected")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS_ORIGINS contains '*': any site can open WebSocket connections")
			break
		}
	}
	logging.Info().
		Str("identity_header", cfg.WebSocket.IdentityHeader).
		Msg("User identity is taken from a proxy header; the relay must only be reachable through that proxy")
}
