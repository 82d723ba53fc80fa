// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package supervisor

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/relay"
	"github.com/tomtom215/campus-relay/internal/supervisor/services"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// stubService implements suture.Service with scripted failures.
type stubService struct {
	name       string
	startCount atomic.Int32
	stopCount  atomic.Int32
	failCount  atomic.Int32

	mu       sync.Mutex
	maxFails int32
}

func newStubService(name string) *stubService {
	return &stubService{name: name}
}

func (s *stubService) Serve(ctx context.Context) error {
	s.startCount.Add(1)
	defer s.stopCount.Add(1)

	s.mu.Lock()
	maxFails := s.maxFails
	s.mu.Unlock()

	if maxFails > 0 && s.failCount.Add(1) <= maxFails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) failTimes(n int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFails = n
}

func (s *stubService) String() string { return s.name }

func newTestTree(t *testing.T, cfg TreeConfig) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg)
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	return tree
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates root supervisor", func(t *testing.T) {
		tree := newTestTree(t, DefaultTreeConfig())
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies defaults for zero config", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{})
		if got := tree.Config(); got != DefaultTreeConfig() {
			t.Errorf("Config() = %+v, want %+v", got, DefaultTreeConfig())
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := TreeConfig{
			FailureThreshold: 2,
			FailureDecay:     1,
			FailureBackoff:   time.Millisecond,
			ShutdownTimeout:  time.Second,
		}
		tree := newTestTree(t, cfg)
		if got := tree.Config(); got != cfg {
			t.Errorf("Config() = %+v, want %+v", got, cfg)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		tree, err := NewSupervisorTree(nil, TreeConfig{})
		if err != nil {
			t.Fatalf("NewSupervisorTree(nil) error = %v", err)
		}
		if tree.logger == nil {
			t.Error("logger should not be nil")
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	t.Run("starts every layer and stops on cancel", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})

		messaging := newStubService("messaging")
		api := newStubService("api")
		tree.AddMessagingService(messaging)
		tree.AddAPIService(api)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := tree.ServeBackground(ctx)

		waitFor(t, "services to start", func() bool {
			return messaging.startCount.Load() == 1 && api.startCount.Load() == 1
		})
		cancel()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("tree did not shut down in time")
		}

		if messaging.stopCount.Load() != 1 || api.stopCount.Load() != 1 {
			t.Errorf("stop counts = %d/%d, want 1/1", messaging.stopCount.Load(), api.stopCount.Load())
		}
		report, err := tree.UnstoppedServiceReport()
		if err != nil {
			t.Fatalf("UnstoppedServiceReport() error = %v", err)
		}
		if len(report) != 0 {
			t.Errorf("unstopped services = %v, want none", report)
		}
	})

	t.Run("removed service is stopped", func(t *testing.T) {
		tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})
		svc := newStubService("removable")
		token := tree.AddAPIService(svc)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		tree.ServeBackground(ctx)

		waitFor(t, "service to start", func() bool { return svc.startCount.Load() == 1 })
		if err := tree.RemoveAPIService(token); err != nil {
			t.Fatalf("RemoveAPIService() error = %v", err)
		}
		waitFor(t, "service to stop", func() bool { return svc.stopCount.Load() == 1 })
	})
}

func TestSupervisorTreeFailureIsolation(t *testing.T) {
	tree := newTestTree(t, TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := newStubService("failing")
	failing.failTimes(2)
	stable := newStubService("stable")

	tree.AddMessagingService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	waitFor(t, "failing service to recover", func() bool { return failing.startCount.Load() >= 3 })

	if got := stable.startCount.Load(); got != 1 {
		t.Errorf("stable service started %d times, want 1", got)
	}
}

func TestSupervisorTreeRunsRelayHub(t *testing.T) {
	hub := relay.NewHub(relay.WithSampleInterval(10 * time.Millisecond))
	tree := newTestTree(t, TreeConfig{ShutdownTimeout: time.Second})
	tree.AddMessagingService(services.NewHubService(hub))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	// The hub keeps accepting connections while supervised.
	time.Sleep(20 * time.Millisecond)
	if hub.Closed() {
		t.Fatal("hub closed while tree is running")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}
	if !hub.Closed() {
		t.Error("hub should be closed after the tree stops")
	}
}

var _ suture.Service = (*stubService)(nil)
