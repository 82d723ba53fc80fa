// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package eventprocessor

import (
	"io"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/events"
	"github.com/tomtom215/campus-relay/internal/logging"
)

func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// chanSender is a relay.Sender backed by a buffered channel.
type chanSender struct {
	frames chan []byte
}

func newChanSender() *chanSender {
	return &chanSender{frames: make(chan []byte, 64)}
}

func (s *chanSender) Enqueue(frame []byte) bool {
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *chanSender) Close() {}

func (s *chanSender) next(t *testing.T) events.Envelope {
	t.Helper()
	select {
	case frame := <-s.frames:
		var env events.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("frame is not an envelope: %s", frame)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return events.Envelope{}
	}
}

func (s *chanSender) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case frame := <-s.frames:
		t.Fatalf("unexpected frame: %s", frame)
	case <-time.After(wait):
	}
}

func newGoChannel(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	return pubSub
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
