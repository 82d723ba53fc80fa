// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

// Package testinfra provides container-backed infrastructure for integration tests.
//
// Files are built only with the integration tag:
//
//	go test -tags integration ./internal/eventprocessor/...
//
// # NATS Container
//
// NATSContainer runs a standalone NATS server so several relay instances can
// be pointed at one external backbone, the deployment the embedded server
// cannot reproduce:
//
//	func TestFanOut(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    natsC, err := testinfra.NewNATSContainer(context.Background())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, natsC)
//
//	    cfg := eventprocessor.DefaultConfig()
//	    cfg.URL = natsC.URL
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable. The first run pulls the image.
package testinfra
