// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeHub struct {
	runs atomic.Int32
	err  error
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	f.runs.Add(1)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestHubService(t *testing.T) {
	var _ suture.Service = (*HubService)(nil)

	t.Run("delegates until cancel", func(t *testing.T) {
		hub := &fakeHub{}
		svc := NewHubService(hub)
		if svc.String() != "relay-hub" {
			t.Errorf("String() = %q, want relay-hub", svc.String())
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if hub.runs.Load() != 1 {
			t.Errorf("runs = %d, want 1", hub.runs.Load())
		}
	})

	t.Run("propagates hub error", func(t *testing.T) {
		boom := errors.New("boom")
		err := NewHubService(&fakeHub{err: boom}).Serve(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("Serve() = %v, want %v", err, boom)
		}
	})
}

type fakeBackbone struct {
	startErr  error
	starts    atomic.Int32
	shutdowns atomic.Int32
	running   atomic.Bool
}

func (f *fakeBackbone) Start(context.Context) error {
	f.starts.Add(1)
	if f.startErr != nil {
		return f.startErr
	}
	f.running.Store(true)
	return nil
}

func (f *fakeBackbone) Shutdown(context.Context) {
	f.shutdowns.Add(1)
	f.running.Store(false)
}

func (f *fakeBackbone) IsRunning() bool { return f.running.Load() }

func TestNewBackboneService_Defaults(t *testing.T) {
	svc := NewBackboneService(&fakeBackbone{}, 0)
	if svc.shutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, DefaultShutdownTimeout)
	}
	if svc.healthInterval != DefaultHealthInterval {
		t.Errorf("healthInterval = %v, want %v", svc.healthInterval, DefaultHealthInterval)
	}
	if svc.WithHealthInterval(-time.Second).healthInterval != DefaultHealthInterval {
		t.Error("negative health interval should be ignored")
	}
	if svc.String() != "nats-backbone" {
		t.Errorf("String() = %q, want nats-backbone", svc.String())
	}
}

func TestBackboneService_Serve(t *testing.T) {
	var _ suture.Service = (*BackboneService)(nil)

	t.Run("starts and shuts down on cancel", func(t *testing.T) {
		bb := &fakeBackbone{}
		svc := NewBackboneService(bb, time.Second).WithHealthInterval(5 * time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if bb.starts.Load() != 1 || bb.shutdowns.Load() != 1 {
			t.Errorf("starts/shutdowns = %d/%d, want 1/1", bb.starts.Load(), bb.shutdowns.Load())
		}
	})

	t.Run("start failure is returned", func(t *testing.T) {
		startErr := errors.New("no servers available")
		bb := &fakeBackbone{startErr: startErr}
		err := NewBackboneService(bb, time.Second).Serve(context.Background())
		if !errors.Is(err, startErr) {
			t.Errorf("Serve() = %v, want %v", err, startErr)
		}
		if bb.shutdowns.Load() != 0 {
			t.Error("backbone should not be shut down after a failed start")
		}
	})

	t.Run("lost subscription is returned", func(t *testing.T) {
		bb := &fakeBackbone{}
		svc := NewBackboneService(bb, time.Second).WithHealthInterval(5 * time.Millisecond)

		errCh := make(chan error, 1)
		go func() { errCh <- svc.Serve(context.Background()) }()

		deadline := time.Now().Add(time.Second)
		for !bb.IsRunning() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		bb.running.Store(false)

		select {
		case err := <-errCh:
			if !errors.Is(err, ErrSubscriptionLost) {
				t.Errorf("Serve() = %v, want ErrSubscriptionLost", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not notice the lost subscription")
		}
	})

	t.Run("supervisor resubscribes", func(t *testing.T) {
		bb := &fakeBackbone{}
		svc := NewBackboneService(bb, time.Second).WithHealthInterval(5 * time.Millisecond)

		sup := suture.New("test-sup", suture.Spec{
			FailureThreshold: 10,
			FailureBackoff:   10 * time.Millisecond,
			Timeout:          time.Second,
		})
		sup.Add(svc)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := sup.ServeBackground(ctx)

		deadline := time.Now().Add(time.Second)
		for !bb.IsRunning() && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		bb.running.Store(false)
		for bb.starts.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if bb.starts.Load() < 2 {
			t.Errorf("starts = %d, want a restart after the subscription ended", bb.starts.Load())
		}

		cancel()
		<-errCh
	})
}
