// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package supervisor provides process supervision for the relay using suture v4.

# Overview

Long-running services are organized into two layers so a failure in one does
not restart the other:

	RootSupervisor ("campus-relay")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService
	│   └── BackboneService (if NATS_ENABLED)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's failure decay and backoff.
Supervisor events (start, stop, failure, backoff) are logged through the
sutureslog adapter, which writes to the zerolog-backed slog handler from the
logging package.

# Usage

	logger := logging.NewSlogLogger("supervisor")
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    FailureDecay:     cfg.Supervisor.FailureDecay,
	    FailureBackoff:   cfg.Supervisor.FailureBackoff,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Shutdown

Canceling the context stops both layers. Each service gets ShutdownTimeout
to return; UnstoppedServiceReport lists any that did not.
*/
package supervisor
