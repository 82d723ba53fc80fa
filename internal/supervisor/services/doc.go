// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

/*
Package services provides suture.Service wrappers for the relay's long-running
components.

Each wrapper translates a component lifecycle into suture's
Serve(ctx) error pattern and names itself through fmt.Stringer so suture's
events identify it:

  - HubService ("relay-hub"): relay.Hub.RunWithContext. Cancel closes every
    WebSocket connection.
  - BackboneService ("nats-backbone"): eventprocessor.Backbone Start/Shutdown.
    A subscription that ends on its own surfaces as ErrSubscriptionLost so
    suture resubscribes.
  - HTTPServerService ("http-server"): *http.Server ListenAndServe/Shutdown.

The wrappers depend on small interfaces rather than the concrete types, so
they are tested with fakes and never import the packages they supervise.

# Usage

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewBackboneService(backbone, 10*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, 10*time.Second))
*/
package services
