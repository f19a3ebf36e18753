package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Driftline/internal/pkg/kafka"
	"Driftline/internal/realtime/feed"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	next  *DashboardAggregate
	err   error
}

func (f *fakeFetcher) FetchAggregate(context.Context, uint64) (*DashboardAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.next, nil
}

func (f *fakeFetcher) set(agg *DashboardAggregate, err error) {
	f.mu.Lock()
	f.next = agg
	f.err = err
	f.mu.Unlock()
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRefresherInitialFetchOnAttach(t *testing.T) {
	bus := feed.NewBus()
	fetcher := &fakeFetcher{next: &DashboardAggregate{Stats: DashboardStats{ChannelCount: 3}}}
	refresher := NewDashboardRefresher(bus, fetcher, false)

	refresher.Attach(1)

	waitFor(t, func() bool { return refresher.Aggregate() != nil })
	if got := refresher.Aggregate().Stats.ChannelCount; got != 3 {
		t.Fatalf("unexpected snapshot: %d", got)
	}
}

func TestRefresherRefreshesOnAnyWatchedTable(t *testing.T) {
	bus := feed.NewBus()
	fetcher := &fakeFetcher{next: &DashboardAggregate{}}
	refresher := NewDashboardRefresher(bus, fetcher, false)
	refresher.Attach(1)
	waitFor(t, func() bool { return fetcher.callCount() == 1 })

	events := []*kafka.RowEvent{
		{Table: "messages", Type: "INSERT", Data: []map[string]interface{}{{"id": "m"}}},
		{Table: "channels", Type: "UPDATE", Data: []map[string]interface{}{{"id": "1"}}},
		{Table: "users", Type: "DELETE", Data: []map[string]interface{}{{"id": "2"}}},
		{Table: "channel_members", Type: "INSERT", Data: []map[string]interface{}{{"id": "3"}}},
	}
	for _, ev := range events {
		bus.Dispatch(ev)
	}

	waitFor(t, func() bool { return fetcher.callCount() == 5 })
}

func TestRefresherFailureKeepsPriorSnapshot(t *testing.T) {
	bus := feed.NewBus()
	fetcher := &fakeFetcher{next: &DashboardAggregate{Stats: DashboardStats{TotalUserCount: 10}}}
	refresher := NewDashboardRefresher(bus, fetcher, false)
	refresher.Attach(1)
	waitFor(t, func() bool { return refresher.Aggregate() != nil })

	fetcher.set(nil, errors.New("api down"))
	bus.Dispatch(&kafka.RowEvent{Table: "users", Type: "INSERT", Data: []map[string]interface{}{{"id": "9"}}})

	waitFor(t, func() bool { return fetcher.callCount() >= 2 })
	time.Sleep(50 * time.Millisecond)

	agg := refresher.Aggregate()
	if agg == nil || agg.Stats.TotalUserCount != 10 {
		t.Fatalf("failed refresh must keep prior snapshot, got %+v", agg)
	}
}

func TestRefresherDetachStopsRefreshes(t *testing.T) {
	bus := feed.NewBus()
	fetcher := &fakeFetcher{next: &DashboardAggregate{}}
	refresher := NewDashboardRefresher(bus, fetcher, false)
	refresher.Attach(1)
	waitFor(t, func() bool { return fetcher.callCount() == 1 })

	refresher.Detach()
	refresher.Detach()

	bus.Dispatch(&kafka.RowEvent{Table: "messages", Type: "INSERT", Data: []map[string]interface{}{{"id": "m"}}})
	time.Sleep(100 * time.Millisecond)

	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("detached refresher must not fetch, calls=%d", got)
	}
	if refresher.Aggregate() != nil {
		t.Fatal("detached refresher must drop its snapshot")
	}
}

func TestRefresherUnknownTableIgnored(t *testing.T) {
	bus := feed.NewBus()
	fetcher := &fakeFetcher{next: &DashboardAggregate{}}
	refresher := NewDashboardRefresher(bus, fetcher, false)
	refresher.Attach(1)
	waitFor(t, func() bool { return fetcher.callCount() == 1 })

	bus.Dispatch(&kafka.RowEvent{Table: "sessions", Type: "INSERT", Data: []map[string]interface{}{{"id": "s"}}})
	time.Sleep(100 * time.Millisecond)

	if got := fetcher.callCount(); got != 1 {
		t.Fatalf("unwatched table must not trigger a refresh, calls=%d", got)
	}
}
