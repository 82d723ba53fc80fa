// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package relay

import (
	"context"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/campus-relay/internal/events"
	"github.com/tomtom215/campus-relay/internal/rooms"
)

// countingBroadcaster records calls without any hub behind it.
type countingBroadcaster struct {
	calls int
	rooms []rooms.Name
}

func (b *countingBroadcaster) Broadcast(room rooms.Name, _ []byte, _ ...BroadcastOption) int {
	b.calls++
	b.rooms = append(b.rooms, room)
	return 0
}

type frame struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data"`
}

func decodeFrames(t *testing.T, raw []string) []frame {
	t.Helper()
	out := make([]frame, len(raw))
	for i, r := range raw {
		if err := json.Unmarshal([]byte(r), &out[i]); err != nil {
			t.Fatalf("frame %d is not JSON: %v", i, err)
		}
	}
	return out
}

func TestScenarioGroupBroadcast(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	a, sa := register(t, h)
	b, sb := register(t, h)
	_, sc := register(t, h)
	join(t, h, a, "group_7")
	join(t, h, b, "group_7")

	res := r.PublishRaw(context.Background(), []byte(`{"type":"groupMessage","groupId":"7","payload":"hi"}`))

	if !res.Accepted || !res.Delivered || res.Recipients != 2 || res.Room != "group_7" {
		t.Fatalf("PublishRaw() = %+v", res)
	}
	for name, s := range map[string]*recordingSender{"A": sa, "B": sb} {
		frames := decodeFrames(t, s.received())
		if len(frames) != 1 {
			t.Fatalf("%s received %d frames, want 1", name, len(frames))
		}
		if string(frames[0].Data) != `"hi"` || frames[0].Type != "groupMessage" || frames[0].Room != "group_7" {
			t.Errorf("%s received %+v", name, frames[0])
		}
	}
	if len(sc.received()) != 0 {
		t.Errorf("non-member received %v", sc.received())
	}
}

func TestScenarioDisconnectedUser(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	a, sa := register(t, h)
	join(t, h, a, "user_5")
	h.Unregister(a)

	res := r.PublishRaw(context.Background(), []byte(`{"type":"notification","userId":"5","payload":"x"}`))

	if !res.Accepted || res.Delivered || res.Recipients != 0 {
		t.Errorf("PublishRaw() = %+v, want accepted with no recipients", res)
	}
	if len(sa.received()) != 0 {
		t.Errorf("disconnected connection received %v", sa.received())
	}
}

func TestScenarioRejoinDeliversOnce(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	a, sa := register(t, h)
	room := rooms.MustNew(rooms.CategoryEvent, "3")
	join(t, h, a, room)
	h.Leave(a, room)
	join(t, h, a, room)
	join(t, h, a, room)

	ev, err := events.NewRSVPUpdate("3", map[string]int{"going": 12})
	if err != nil {
		t.Fatalf("NewRSVPUpdate() error = %v", err)
	}
	res := r.Publish(context.Background(), ev)

	if res.Recipients != 1 {
		t.Errorf("Recipients = %d, want 1", res.Recipients)
	}
	if got := len(sa.received()); got != 1 {
		t.Errorf("received %d copies, want 1", got)
	}
}

func TestScenarioOrderPreserved(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	a, sa := register(t, h)
	join(t, h, a, "forum_9")

	ctx := context.Background()
	r.PublishRaw(ctx, []byte(`{"type":"newPost","forumId":"9","seq":1}`))
	r.PublishRaw(ctx, []byte(`{"type":"newPost","forumId":"9","seq":2}`))

	frames := decodeFrames(t, sa.received())
	if len(frames) != 2 {
		t.Fatalf("received %d frames, want 2", len(frames))
	}
	for i, want := range []int{1, 2} {
		var body struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(frames[i].Data, &body); err != nil {
			t.Fatalf("frame %d data: %v", i, err)
		}
		if body.Seq != want {
			t.Errorf("frame %d seq = %d, want %d", i, body.Seq, want)
		}
	}
}

func TestPublishRejectsWithoutBroadcast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantReason string
	}{
		{"unknown type", `{"type":"not_a_real_type","groupId":"7"}`, ReasonUnknownType},
		{"missing id", `{"type":"groupMessage"}`, ReasonMissingID},
		{"null id", `{"type":"groupMessage","groupId":null}`, ReasonMissingID},
		{"empty id", `{"type":"groupMessage","groupId":""}`, ReasonMissingID},
		{"not json", `{{{`, ReasonMalformed},
		{"no type", `{"groupId":"7"}`, ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := &countingBroadcaster{}
			res := New(b).PublishRaw(context.Background(), []byte(tt.input))

			if res.Accepted || res.Delivered {
				t.Errorf("PublishRaw() = %+v, want rejected", res)
			}
			if res.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.wantReason)
			}
			if b.calls != 0 {
				t.Errorf("Broadcast called %d times for a rejected event", b.calls)
			}
		})
	}
}

func TestPublishNilEvent(t *testing.T) {
	t.Parallel()

	b := &countingBroadcaster{}
	res := New(b).Publish(context.Background(), nil)
	if res.Accepted || res.Reason != ReasonMalformed || b.calls != 0 {
		t.Errorf("Publish(nil) = %+v, calls = %d", res, b.calls)
	}
}

func TestPublishInterestGroupRoom(t *testing.T) {
	t.Parallel()

	b := &countingBroadcaster{}
	res := New(b).PublishRaw(context.Background(),
		[]byte(`{"type":"groupMessage","groupId":"7","scope":"interestGroup","payload":{}}`))

	if !res.Accepted || res.Room != "interestGroup_7" {
		t.Fatalf("PublishRaw() = %+v", res)
	}
	if len(b.rooms) != 1 || b.rooms[0] != "interestGroup_7" {
		t.Errorf("broadcast rooms = %v", b.rooms)
	}
}

func TestPublishExcludesOriginator(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	a, sa := register(t, h)
	b, sb := register(t, h)
	join(t, h, a, "mentorship_2")
	join(t, h, b, "mentorship_2")

	ev, err := events.NewMentorshipMessage("2", map[string]string{"text": "hello"})
	if err != nil {
		t.Fatalf("NewMentorshipMessage() error = %v", err)
	}
	res := r.Publish(context.Background(), ev, ExcludeConn(a))

	if res.Recipients != 1 {
		t.Errorf("Recipients = %d, want 1", res.Recipients)
	}
	if len(sa.received()) != 0 || len(sb.received()) != 1 {
		t.Errorf("originator got %d, peer got %d", len(sa.received()), len(sb.received()))
	}
}

func TestCategoryIsolationAcrossPublish(t *testing.T) {
	t.Parallel()

	h := NewHub()
	r := New(h)
	g, sg := register(t, h)
	e, se := register(t, h)
	join(t, h, g, "group_42")
	join(t, h, e, "event_42")

	r.PublishRaw(context.Background(), []byte(`{"type":"event_rsvp_update","eventId":"42"}`))

	if len(sg.received()) != 0 {
		t.Error("group member received an event-room broadcast")
	}
	if len(se.received()) != 1 {
		t.Errorf("event member received %d frames, want 1", len(se.received()))
	}
}
