package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Driftline/internal/realtime/presence"
)

type fakeChannel struct {
	mu       sync.Mutex
	snapshot map[string][]presence.Record
	snapErr  error
	handlers map[presence.Event][]func()

	published []presence.Record
	leaves    int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		snapshot: make(map[string][]presence.Record),
		handlers: make(map[presence.Event][]func()),
	}
}

func (c *fakeChannel) On(ev presence.Event, handler func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[ev] = append(c.handlers[ev], handler)
}

func (c *fakeChannel) Publish(_ context.Context, rec presence.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, rec)
	return nil
}

func (c *fakeChannel) Snapshot(context.Context) (map[string][]presence.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapErr != nil {
		return nil, c.snapErr
	}
	out := make(map[string][]presence.Record, len(c.snapshot))
	for k, v := range c.snapshot {
		out[k] = v
	}
	return out, nil
}

func (c *fakeChannel) Leave(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves++
	return nil
}

func (c *fakeChannel) setSnapshot(snap map[string][]presence.Record) {
	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()
}

func (c *fakeChannel) setSnapErr(err error) {
	c.mu.Lock()
	c.snapErr = err
	c.mu.Unlock()
}

func (c *fakeChannel) fire(ev presence.Event) {
	c.mu.Lock()
	handlers := append([]func(){}, c.handlers[ev]...)
	c.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func joinerFor(ch *fakeChannel) ChannelJoiner {
	return func(context.Context, string, string) (PresenceChannel, error) {
		return ch, nil
	}
}

func TestTrackerDeduplicatesUsersAcrossClients(t *testing.T) {
	ch := newFakeChannel()
	ch.setSnapshot(map[string][]presence.Record{
		"a": {{ClientKey: "a", UserID: 1, Since: time.Now()}},
		"b": {{ClientKey: "b", UserID: 1, Since: time.Now()}},
		"c": {{ClientKey: "c", UserID: 2, Since: time.Now()}},
	})

	tracker := NewPresenceTracker(joinerFor(ch), "global")
	tracker.Attach(context.Background(), 1, true)

	ids := tracker.OnlineUserIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("unexpected online set: %v", ids)
	}
}

func TestTrackerIsOnlineFailsClosed(t *testing.T) {
	tracker := NewPresenceTracker(func(context.Context, string, string) (PresenceChannel, error) {
		return nil, errors.New("redis down")
	}, "global")

	if tracker.IsOnline(1) {
		t.Fatal("unknown user must read as offline")
	}

	// 建连失败集合保持为空
	tracker.Attach(context.Background(), 1, true)
	if tracker.IsOnline(1) {
		t.Fatal("join failure must leave the set empty")
	}
}

func TestTrackerSnapshotErrorKeepsLastState(t *testing.T) {
	ch := newFakeChannel()
	ch.setSnapshot(map[string][]presence.Record{
		"a": {{ClientKey: "a", UserID: 5, Since: time.Now()}},
	})

	tracker := NewPresenceTracker(joinerFor(ch), "global")
	tracker.Attach(context.Background(), 5, true)
	if !tracker.IsOnline(5) {
		t.Fatal("expected user 5 online after initial sync")
	}

	ch.setSnapErr(errors.New("read failed"))
	ch.fire(presence.EventSync)

	if !tracker.IsOnline(5) {
		t.Fatal("failed snapshot must keep the previous set")
	}
}

func TestTrackerSyncReplacesSetWholesale(t *testing.T) {
	ch := newFakeChannel()
	ch.setSnapshot(map[string][]presence.Record{
		"a": {{ClientKey: "a", UserID: 1, Since: time.Now()}},
	})

	tracker := NewPresenceTracker(joinerFor(ch), "global")
	tracker.Attach(context.Background(), 1, true)

	ch.setSnapshot(map[string][]presence.Record{
		"b": {{ClientKey: "b", UserID: 2, Since: time.Now()}},
	})
	ch.fire(presence.EventSync)

	if tracker.IsOnline(1) {
		t.Fatal("user 1 should be gone after replacement")
	}
	if !tracker.IsOnline(2) {
		t.Fatal("user 2 should be online after replacement")
	}
}

func TestTrackerReattachTearsDownPreviousChannel(t *testing.T) {
	first := newFakeChannel()
	second := newFakeChannel()
	channels := []*fakeChannel{first, second}
	calls := 0

	joiner := func(context.Context, string, string) (PresenceChannel, error) {
		ch := channels[calls]
		calls++
		return ch, nil
	}

	tracker := NewPresenceTracker(joiner, "global")
	tracker.Attach(context.Background(), 1, true)
	tracker.Attach(context.Background(), 2, true)

	if first.leaves != 1 {
		t.Fatalf("previous channel must be left exactly once, got %d", first.leaves)
	}
	if second.leaves != 0 {
		t.Fatalf("current channel must stay joined, got %d leaves", second.leaves)
	}
	if len(second.published) != 1 || second.published[0].UserID != 2 {
		t.Fatalf("new identity not published: %+v", second.published)
	}
}

func TestTrackerDisabledDoesNotJoin(t *testing.T) {
	calls := 0
	joiner := func(context.Context, string, string) (PresenceChannel, error) {
		calls++
		return newFakeChannel(), nil
	}

	tracker := NewPresenceTracker(joiner, "global")
	tracker.Attach(context.Background(), 1, false)

	if calls != 0 {
		t.Fatalf("disabled tracker must not join, joined %d times", calls)
	}
	if tracker.IsOnline(1) {
		t.Fatal("disabled tracker must report offline")
	}
}

func TestTrackerDetachIdempotent(t *testing.T) {
	ch := newFakeChannel()
	ch.setSnapshot(map[string][]presence.Record{
		"a": {{ClientKey: "a", UserID: 1, Since: time.Now()}},
	})

	tracker := NewPresenceTracker(joinerFor(ch), "global")
	tracker.Attach(context.Background(), 1, true)

	tracker.Detach(context.Background())
	tracker.Detach(context.Background())

	if ch.leaves != 1 {
		t.Fatalf("expected a single leave, got %d", ch.leaves)
	}
	if tracker.IsOnline(1) {
		t.Fatal("detached tracker must report offline")
	}
}
