// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/campus-relay/internal/logging"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// recordingSender collects frames in order and can be told to refuse them.
type recordingSender struct {
	mu     sync.Mutex
	frames []string
	closes int
	full   bool
}

func (s *recordingSender) Enqueue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full || s.closes > 0 {
		return false
	}
	s.frames = append(s.frames, string(frame))
	return true
}

func (s *recordingSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *recordingSender) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames...)
}

func (s *recordingSender) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *recordingSender) setFull(full bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.full = full
}

func register(t *testing.T, h *Hub) (ConnID, *recordingSender) {
	t.Helper()
	s := &recordingSender{}
	id, err := h.Register(s)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return id, s
}

func join(t *testing.T, h *Hub, id ConnID, room rooms.Name) {
	t.Helper()
	if _, err := h.Join(id, room); err != nil {
		t.Fatalf("Join(%d, %s) error = %v", id, room, err)
	}
}

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, _ := register(t, h)
	b, _ := register(t, h)
	h.Unregister(a)
	c, _ := register(t, h)

	if !(a < b && b < c) {
		t.Errorf("ids not strictly increasing: %d, %d, %d", a, b, c)
	}
	if c == a {
		t.Error("id was reused after unregister")
	}
	if h.ConnectionCount() != 2 {
		t.Errorf("ConnectionCount() = %d, want 2", h.ConnectionCount())
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHub()
	id, s := register(t, h)
	room := rooms.MustNew(rooms.CategoryGroup, "7")

	changed, err := h.Join(id, room)
	if err != nil || !changed {
		t.Fatalf("first Join() = %v, %v; want true, nil", changed, err)
	}
	changed, err = h.Join(id, room)
	if err != nil || changed {
		t.Fatalf("second Join() = %v, %v; want false, nil", changed, err)
	}

	if got := h.MemberCount(room); got != 1 {
		t.Errorf("MemberCount() = %d, want 1", got)
	}
	if n := h.Broadcast(room, []byte("x")); n != 1 {
		t.Errorf("Broadcast() = %d, want 1", n)
	}
	if got := len(s.received()); got != 1 {
		t.Errorf("received %d frames, want 1", got)
	}
}

func TestJoinUnknownConnection(t *testing.T) {
	t.Parallel()

	h := NewHub()
	room := rooms.MustNew(rooms.CategoryGroup, "7")

	if _, err := h.Join(99, room); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("Join(unknown) error = %v, want ErrUnknownConnection", err)
	}

	id, _ := register(t, h)
	h.Unregister(id)
	if _, err := h.Join(id, room); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("Join(disconnected) error = %v, want ErrUnknownConnection", err)
	}
	if h.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0", h.RoomCount())
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, _ := register(t, h)
	b, _ := register(t, h)
	room := rooms.MustNew(rooms.CategoryForum, "9")
	other := rooms.MustNew(rooms.CategoryForum, "10")
	join(t, h, b, room)

	if h.Leave(a, room) {
		t.Error("Leave() of a never-joined room reported a change")
	}
	if h.Leave(a, other) {
		t.Error("Leave() of a nonexistent room reported a change")
	}
	if h.Leave(1000, room) {
		t.Error("Leave() with unknown id reported a change")
	}
	if got := h.Members(room); len(got) != 1 || got[0] != b {
		t.Errorf("Members() = %v, want [%d]", got, b)
	}

	if !h.Leave(b, room) {
		t.Error("Leave() of a joined room reported no change")
	}
	if h.Leave(b, room) {
		t.Error("second Leave() reported a change")
	}
}

func TestEmptyRoomsAreRemoved(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, _ := register(t, h)
	b, _ := register(t, h)
	room := rooms.MustNew(rooms.CategoryEvent, "3")
	join(t, h, a, room)
	join(t, h, b, room)

	h.Leave(a, room)
	if h.RoomCount() != 1 {
		t.Fatalf("RoomCount() = %d, want 1 while a member remains", h.RoomCount())
	}
	h.Unregister(b)
	if h.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0 after last member left", h.RoomCount())
	}
	if len(h.Rooms()) != 0 {
		t.Errorf("Rooms() = %v, want empty", h.Rooms())
	}
}

func TestUnregisterCleansUpEveryRoom(t *testing.T) {
	t.Parallel()

	h := NewHub()
	id, s := register(t, h)
	r1 := rooms.MustNew(rooms.CategoryGroup, "1")
	r2 := rooms.MustNew(rooms.CategoryEvent, "2")
	r3 := rooms.MustNew(rooms.CategoryUser, "3")
	for _, r := range []rooms.Name{r1, r2, r3} {
		join(t, h, id, r)
	}

	if !h.Unregister(id) {
		t.Fatal("Unregister() = false, want true")
	}
	if h.Unregister(id) {
		t.Error("second Unregister() = true, want false")
	}
	if s.closeCount() != 1 {
		t.Errorf("sender closed %d times, want 1", s.closeCount())
	}

	for _, r := range []rooms.Name{r1, r2, r3} {
		if n := h.MemberCount(r); n != 0 {
			t.Errorf("MemberCount(%s) = %d after unregister", r, n)
		}
		if n := h.Broadcast(r, []byte("late")); n != 0 {
			t.Errorf("Broadcast(%s) reached %d connections after unregister", r, n)
		}
	}
	if len(s.received()) != 0 {
		t.Errorf("disconnected sender received %v", s.received())
	}
	if h.Connected(id) {
		t.Error("Connected() = true after unregister")
	}
}

func TestBroadcastEmptyRoomIsNoop(t *testing.T) {
	t.Parallel()

	h := NewHub()
	if n := h.Broadcast(rooms.MustNew(rooms.CategoryCampaign, "1"), []byte("x")); n != 0 {
		t.Errorf("Broadcast() = %d, want 0", n)
	}
}

func TestBroadcastExcludeConn(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, sa := register(t, h)
	b, sb := register(t, h)
	room := rooms.MustNew(rooms.CategoryMentorship, "4")
	join(t, h, a, room)
	join(t, h, b, room)

	if n := h.Broadcast(room, []byte("echo"), ExcludeConn(a)); n != 1 {
		t.Fatalf("Broadcast() = %d, want 1", n)
	}
	if len(sa.received()) != 0 {
		t.Errorf("excluded connection received %v", sa.received())
	}
	if len(sb.received()) != 1 {
		t.Errorf("other member received %v", sb.received())
	}
}

func TestBroadcastOverflowDisconnects(t *testing.T) {
	t.Parallel()

	h := NewHub()
	slow, ss := register(t, h)
	fast, sf := register(t, h)
	room := rooms.MustNew(rooms.CategoryGroup, "7")
	other := rooms.MustNew(rooms.CategoryUser, "5")
	join(t, h, slow, room)
	join(t, h, slow, other)
	join(t, h, fast, room)

	ss.setFull(true)
	if n := h.Broadcast(room, []byte("m1")); n != 1 {
		t.Fatalf("Broadcast() = %d, want 1", n)
	}

	if h.Connected(slow) {
		t.Error("overflowing connection still registered")
	}
	if ss.closeCount() != 1 {
		t.Errorf("overflowing sender closed %d times, want 1", ss.closeCount())
	}
	if h.MemberCount(other) != 0 {
		t.Error("overflowing connection still a member of its other rooms")
	}
	if got := sf.received(); len(got) != 1 || got[0] != "m1" {
		t.Errorf("healthy member received %v, want [m1]", got)
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	h := NewHub()
	id, s := register(t, h)

	if !h.Send(id, []byte("pong")) {
		t.Fatal("Send() = false")
	}
	if h.Send(id+100, []byte("pong")) {
		t.Error("Send() to unknown id = true")
	}

	s.setFull(true)
	if h.Send(id, []byte("pong")) {
		t.Error("Send() to full buffer = true")
	}
	if h.Connected(id) {
		t.Error("connection with full buffer still registered after Send")
	}
}

func TestPerConnectionOrdering(t *testing.T) {
	t.Parallel()

	h := NewHub()
	id, s := register(t, h)
	forum := rooms.MustNew(rooms.CategoryForum, "9")
	user := rooms.MustNew(rooms.CategoryUser, "9")
	join(t, h, id, forum)
	join(t, h, id, user)

	want := []string{"1", "2", "3", "4", "5", "6"}
	for i, f := range want {
		room := forum
		if i%2 == 1 {
			room = user
		}
		h.Broadcast(room, []byte(f))
	}

	got := s.received()
	if len(got) != len(want) {
		t.Fatalf("received %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("received %v, want %v", got, want)
		}
	}
}

func TestRoomsSnapshot(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a, _ := register(t, h)
	b, _ := register(t, h)
	join(t, h, a, "group_7")
	join(t, h, b, "group_7")
	join(t, h, a, "event_3")

	stats := h.Rooms()
	if len(stats) != 2 {
		t.Fatalf("Rooms() = %v, want 2 entries", stats)
	}
	if stats[0].Room != "event_3" || stats[0].Members != 1 || stats[0].Category != rooms.CategoryEvent {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].Room != "group_7" || stats[1].Members != 2 {
		t.Errorf("stats[1] = %+v", stats[1])
	}

	if got := h.RoomsOf(a); len(got) != 2 || got[0] != "event_3" || got[1] != "group_7" {
		t.Errorf("RoomsOf() = %v", got)
	}
	if h.RoomsOf(999) != nil {
		t.Error("RoomsOf(unknown) should be nil")
	}
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	t.Parallel()

	h := NewHub()
	room := rooms.MustNew(rooms.CategoryGroup, "busy")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := &recordingSender{}
			id, err := h.Register(s)
			if err != nil {
				t.Errorf("Register() error = %v", err)
				return
			}
			for j := 0; j < 50; j++ {
				_, _ = h.Join(id, room)
				h.Broadcast(room, []byte("x"))
				h.Leave(id, room)
			}
			h.Unregister(id)
		}()
	}
	wg.Wait()

	if h.ConnectionCount() != 0 || h.RoomCount() != 0 {
		t.Errorf("hub not empty: %d connections, %d rooms", h.ConnectionCount(), h.RoomCount())
	}
}

func TestRunWithContextShutsDown(t *testing.T) {
	t.Parallel()

	h := NewHub(WithSampleInterval(10 * time.Millisecond))
	id, s := register(t, h)
	join(t, h, id, "group_7")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if s.closeCount() != 1 {
		t.Errorf("sender closed %d times on shutdown, want 1", s.closeCount())
	}
	if h.ConnectionCount() != 0 || h.RoomCount() != 0 {
		t.Error("hub not empty after shutdown")
	}
	if _, err := h.Register(&recordingSender{}); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Register() after shutdown error = %v, want ErrHubClosed", err)
	}
	if h.Shutdown() != 0 {
		t.Error("second Shutdown() closed connections")
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled reason = %s", got)
	}

	expired, cancel2 := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel2()
	<-expired.Done()
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline reason = %s", got)
	}
}
