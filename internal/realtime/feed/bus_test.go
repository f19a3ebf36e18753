package feed

import (
	"sync/atomic"
	"testing"

	"Driftline/internal/pkg/kafka"
)

func rowEvent(table, typ string, rows ...map[string]interface{}) *kafka.RowEvent {
	return &kafka.RowEvent{Table: table, Type: typ, Data: rows}
}

func TestBusDispatchMatchesTableAndEvent(t *testing.T) {
	bus := NewBus()

	var got int32
	bus.Subscribe(Descriptor{Table: "messages", Event: EventInsert}, func(Row) {
		atomic.AddInt32(&got, 1)
	})

	bus.Dispatch(rowEvent("messages", "INSERT", map[string]interface{}{"id": "a"}))
	bus.Dispatch(rowEvent("messages", "UPDATE", map[string]interface{}{"id": "a"}))
	bus.Dispatch(rowEvent("channels", "INSERT", map[string]interface{}{"id": "1"}))

	if got != 1 {
		t.Fatalf("expected 1 invocation, got %d", got)
	}
}

func TestBusDispatchAnyEvent(t *testing.T) {
	bus := NewBus()

	var got int32
	bus.Subscribe(Descriptor{Table: "users", Event: EventAny}, func(Row) {
		atomic.AddInt32(&got, 1)
	})

	bus.Dispatch(rowEvent("users", "INSERT", map[string]interface{}{"id": "1"}))
	bus.Dispatch(rowEvent("users", "UPDATE", map[string]interface{}{"id": "1"}))
	bus.Dispatch(rowEvent("users", "DELETE", map[string]interface{}{"id": "1"}))

	if got != 3 {
		t.Fatalf("expected 3 invocations, got %d", got)
	}
}

func TestBusPredicateFiltersPerRow(t *testing.T) {
	bus := NewBus()

	var ids []string
	bus.Subscribe(Descriptor{
		Table: "messages",
		Event: EventInsert,
		Predicate: func(row Row) bool {
			return row["channel_id"] == "7"
		},
	}, func(row Row) {
		ids = append(ids, row["id"].(string))
	})

	bus.Dispatch(rowEvent("messages", "INSERT",
		map[string]interface{}{"id": "a", "channel_id": "7"},
		map[string]interface{}{"id": "b", "channel_id": "8"},
		map[string]interface{}{"id": "c", "channel_id": "7"},
	))

	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("unexpected rows: %v", ids)
	}
}

func TestBusUnsubscribeIdempotent(t *testing.T) {
	bus := NewBus()

	var got int32
	sub := bus.Subscribe(Descriptor{Table: "messages", Event: EventInsert}, func(Row) {
		atomic.AddInt32(&got, 1)
	})

	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	bus.Unsubscribe(nil)

	bus.Dispatch(rowEvent("messages", "INSERT", map[string]interface{}{"id": "a"}))
	if got != 0 {
		t.Fatalf("expected no invocations after unsubscribe, got %d", got)
	}
}

func TestBusHandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(Descriptor{Table: "messages", Event: EventInsert}, func(Row) {
		panic("boom")
	})

	var got int32
	bus.Subscribe(Descriptor{Table: "messages", Event: EventInsert}, func(Row) {
		atomic.AddInt32(&got, 1)
	})

	bus.Dispatch(rowEvent("messages", "INSERT", map[string]interface{}{"id": "a"}))
	if got != 1 {
		t.Fatalf("panic in one handler starved another, got %d", got)
	}
}
