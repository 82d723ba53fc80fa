// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/metrics"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DefaultSampleInterval is how often RunWithContext refreshes the relay gauges.
const DefaultSampleInterval = 15 * time.Second

var (
	// ErrHubClosed is returned by Register after the hub has shut down.
	ErrHubClosed = errors.New("relay hub closed")

	// ErrUnknownConnection is returned by Join for ids that are not registered,
	// including ids that were registered once and have since disconnected.
	ErrUnknownConnection = errors.New("unknown connection")
)

// ConnID identifies one registered connection. IDs are assigned from a
// monotonically increasing counter and never reused within a process.
type ConnID uint64

// Sender is the transport side of a connection as the hub sees it.
//
// Enqueue must not block: it returns false when the connection cannot accept
// the frame (send buffer full), and the hub then treats the connection as
// disconnected. Close is called exactly once, by the hub, after the
// connection has been removed from every room.
type Sender interface {
	Enqueue(frame []byte) bool
	Close()
}

type connection struct {
	id          ConnID
	sender      Sender
	rooms       map[rooms.Name]struct{}
	connectedAt time.Time
}

// Hub is the connection registry and room membership index.
//
// Every mutation of membership and every broadcast runs under one mutex, so no
// caller can observe a half-updated member set and no broadcast reaches a
// connection whose disconnect has already been processed. Broadcast only
// enqueues onto each member's buffered sender; socket writes happen in the
// member's own goroutine.
type Hub struct {
	mu     sync.Mutex
	nextID ConnID
	conns  map[ConnID]*connection
	rooms  map[rooms.Name]map[ConnID]struct{}
	closed bool

	sampleInterval time.Duration
	logger         zerolog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSampleInterval sets how often RunWithContext refreshes gauges.
func WithSampleInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.sampleInterval = d
		}
	}
}

// NewHub creates an empty Hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		conns:          make(map[ConnID]*connection),
		rooms:          make(map[rooms.Name]map[ConnID]struct{}),
		sampleInterval: DefaultSampleInterval,
		logger:         logging.WithComponent("relay-hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RunWithContext keeps the relay gauges current until ctx is canceled, then
// disconnects every connection through the normal cleanup path.
// It is designed to run as a supervised service.
func (h *Hub) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(h.sampleInterval)
	defer ticker.Stop()

	h.sample()
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			h.sample()
		}
	}
}

func (h *Hub) sample() {
	h.mu.Lock()
	conns, roomCount := len(h.conns), len(h.rooms)
	h.mu.Unlock()
	metrics.UpdateRelayGauges(conns, roomCount)
}

// logGracefulShutdown closes every connection and logs the shutdown.
// ctx.Err() is deliberately not logged as an error; cancellation is expected here.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.Shutdown()

	h.logger.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("connections_closed", closed).
		Msg("relay hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// Shutdown disconnects every connection and refuses further registrations.
// It returns the number of connections closed. Calling it again is a no-op.
func (h *Hub) Shutdown() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	h.closed = true

	// Close in id order so shutdown logs are reproducible.
	ids := make([]ConnID, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	sortIDs(ids)

	for _, id := range ids {
		h.removeLocked(h.conns[id], "shutdown")
	}
	metrics.UpdateRelayGauges(0, 0)
	return len(ids)
}

// Closed reports whether Shutdown has run.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func sortIDs(ids []ConnID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
