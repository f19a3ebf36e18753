package livesync

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"Driftline/internal/pkg/kafka"
	"Driftline/internal/realtime/feed"
)

type fakeLookup struct {
	mu    sync.Mutex
	users map[uint64]*SenderIdentity
	err   error
}

func (f *fakeLookup) Lookup(_ context.Context, userID uint64) (*SenderIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID], nil
}

func messageRow(id string, channelID, senderID uint64, parentID string) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"channel_id": strconv.FormatUint(channelID, 10),
		"sender_id":  strconv.FormatUint(senderID, 10),
		"content":    "hello",
		"parent_id":  parentID,
		"created_at": time.Now().Format(time.RFC3339Nano),
	}
}

func dispatchInsert(bus *feed.Bus, rows ...map[string]interface{}) {
	bus.Dispatch(&kafka.RowEvent{Table: "messages", Type: "INSERT", Data: rows})
}

func TestStreamAppendIsIdempotent(t *testing.T) {
	bus := feed.NewBus()
	stream := NewMessageStream(bus, &fakeLookup{})
	stream.Attach(7, nil)

	msg := Message{ID: "m1", ChannelID: 7, Content: "hi"}
	if !stream.AddMessage(msg) {
		t.Fatal("first append must succeed")
	}
	if stream.AddMessage(msg) {
		t.Fatal("second append with the same id must be a no-op")
	}
	if got := len(stream.Messages()); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}
}

func TestStreamOptimisticAppendThenEcho(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{users: map[uint64]*SenderIdentity{
		3: {ID: "3", Name: "alice"},
	}}
	stream := NewMessageStream(bus, lookup)
	stream.Attach(7, nil)

	// 本地乐观插入
	stream.AddMessage(Message{ID: "m1", ChannelID: 7, Sender: SenderIdentity{ID: "3", Name: "alice"}})

	// 服务端回流同一条
	dispatchInsert(bus, messageRow("m1", 7, 3, ""))

	time.Sleep(100 * time.Millisecond)
	if got := len(stream.Messages()); got != 1 {
		t.Fatalf("echo must deduplicate, got %d messages", got)
	}
}

func TestStreamDropsThreadReplies(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{users: map[uint64]*SenderIdentity{
		3: {ID: "3", Name: "alice"},
	}}
	stream := NewMessageStream(bus, lookup)
	stream.Attach(7, nil)

	dispatchInsert(bus, messageRow("top", 7, 3, ""))
	dispatchInsert(bus, messageRow("reply", 7, 3, "top"))

	waitFor(t, func() bool { return len(stream.Messages()) == 1 })
	time.Sleep(50 * time.Millisecond)

	msgs := stream.Messages()
	if len(msgs) != 1 || msgs[0].ID != "top" {
		t.Fatalf("thread reply leaked into top-level list: %+v", msgs)
	}
}

func TestStreamIgnoresOtherChannels(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{users: map[uint64]*SenderIdentity{
		3: {ID: "3", Name: "alice"},
	}}
	stream := NewMessageStream(bus, lookup)
	stream.Attach(7, nil)

	dispatchInsert(bus, messageRow("other", 8, 3, ""))
	dispatchInsert(bus, messageRow("mine", 7, 3, ""))

	waitFor(t, func() bool { return len(stream.Messages()) == 1 })
	time.Sleep(50 * time.Millisecond)

	msgs := stream.Messages()
	if len(msgs) != 1 || msgs[0].ID != "mine" {
		t.Fatalf("message from another channel leaked in: %+v", msgs)
	}
}

func TestStreamDeletedSenderPlaceholder(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{users: map[uint64]*SenderIdentity{}}
	stream := NewMessageStream(bus, lookup)
	stream.Attach(7, nil)

	// 身份查询查不到人
	dispatchInsert(bus, messageRow("gone", 7, 99, ""))

	waitFor(t, func() bool { return len(stream.Messages()) == 1 })
	msg := stream.Messages()[0]
	if msg.Sender.ID != "deleted-user" {
		t.Fatalf("expected deleted-user placeholder, got %q", msg.Sender.ID)
	}
	if msg.Sender.Name != "削除済みユーザー" {
		t.Fatalf("unexpected placeholder name %q", msg.Sender.Name)
	}
}

func TestStreamLookupErrorFallsBackToPlaceholder(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{err: errors.New("api down")}
	stream := NewMessageStream(bus, lookup)
	stream.Attach(7, nil)

	dispatchInsert(bus, messageRow("m1", 7, 3, ""))

	waitFor(t, func() bool { return len(stream.Messages()) == 1 })
	if got := stream.Messages()[0].Sender; got != DeletedSender {
		t.Fatalf("lookup failure must not drop the message, sender=%+v", got)
	}
}

func TestStreamReattachReplacesWholesale(t *testing.T) {
	bus := feed.NewBus()
	lookup := &fakeLookup{users: map[uint64]*SenderIdentity{
		3: {ID: "3", Name: "alice"},
	}}
	stream := NewMessageStream(bus, lookup)

	stream.Attach(7, []Message{{ID: "a1", ChannelID: 7}})
	dispatchInsert(bus, messageRow("a2", 7, 3, ""))
	waitFor(t, func() bool { return len(stream.Messages()) == 2 })

	stream.Attach(8, []Message{{ID: "b1", ChannelID: 8}})

	msgs := stream.Messages()
	if len(msgs) != 1 || msgs[0].ID != "b1" {
		t.Fatalf("re-attach must replace the list, got %+v", msgs)
	}

	// 旧频道的事件不再进来
	dispatchInsert(bus, messageRow("a3", 7, 3, ""))
	time.Sleep(100 * time.Millisecond)
	if got := len(stream.Messages()); got != 1 {
		t.Fatalf("old channel subscription survived re-attach, got %d messages", got)
	}
}

func TestStreamDetachIdempotent(t *testing.T) {
	bus := feed.NewBus()
	stream := NewMessageStream(bus, &fakeLookup{})
	stream.Attach(7, []Message{{ID: "m1", ChannelID: 7}})

	stream.Detach()
	stream.Detach()

	if got := len(stream.Messages()); got != 0 {
		t.Fatalf("detached stream must be empty, got %d", got)
	}
}
