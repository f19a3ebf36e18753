package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recordingTransport struct {
	mu    sync.Mutex
	calls []uint64
	err   error
	panic bool
}

func (r *recordingTransport) Send(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panic {
		panic("transport blew up")
	}
	r.calls = append(r.calls, userID)
	return r.err
}

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestBeaconPrefersPrimary(t *testing.T) {
	primary := &recordingTransport{}
	fallback := &recordingTransport{}
	beacon := NewStatusBeacon(primary, fallback)

	beacon.Attach(1, true)
	beacon.HandleVisibility(false)

	if primary.count() != 1 {
		t.Fatalf("primary must carry the send, got %d", primary.count())
	}
	if fallback.count() != 0 {
		t.Fatalf("fallback must stay idle when primary exists, got %d", fallback.count())
	}
}

func TestBeaconFallsBackWhenPrimaryMissing(t *testing.T) {
	fallback := &recordingTransport{}
	beacon := NewStatusBeacon(nil, fallback)

	beacon.Attach(1, true)
	beacon.HandleVisibility(false)

	if fallback.count() != 1 {
		t.Fatalf("fallback must carry the send, got %d", fallback.count())
	}
}

func TestBeaconVisibleDoesNotSend(t *testing.T) {
	primary := &recordingTransport{}
	beacon := NewStatusBeacon(primary, nil)

	beacon.Attach(1, true)
	beacon.HandleVisibility(true)

	if primary.count() != 0 {
		t.Fatalf("returning to foreground must not send, got %d", primary.count())
	}
}

func TestBeaconNeverPropagatesFailures(t *testing.T) {
	failing := &recordingTransport{err: errors.New("network down")}
	beacon := NewStatusBeacon(failing, nil)
	beacon.Attach(1, true)
	beacon.HandleVisibility(false)
	beacon.HandleUnload()

	panicking := &recordingTransport{panic: true}
	beacon = NewStatusBeacon(panicking, nil)
	beacon.Attach(2, true)
	// panic 被吞掉，这里不允许崩
	beacon.HandleVisibility(false)
	beacon.Detach()
}

func TestBeaconNilTransportsAreSafe(t *testing.T) {
	beacon := NewStatusBeacon(nil, nil)
	beacon.Attach(1, true)
	beacon.HandleVisibility(false)
	beacon.HandleUnload()
	beacon.Detach()
}

func TestBeaconDetachSendsFinalWriteOnce(t *testing.T) {
	primary := &recordingTransport{}
	beacon := NewStatusBeacon(primary, nil)

	beacon.Attach(1, true)
	beacon.Detach()
	beacon.Detach()

	if primary.count() != 1 {
		t.Fatalf("detach must send exactly one final write, got %d", primary.count())
	}
}

func TestBeaconDisabledDoesNotSend(t *testing.T) {
	primary := &recordingTransport{}
	beacon := NewStatusBeacon(primary, nil)

	beacon.Attach(1, false)
	beacon.HandleVisibility(false)
	beacon.HandleUnload()
	beacon.Detach()

	if primary.count() != 0 {
		t.Fatalf("disabled beacon must stay silent, got %d", primary.count())
	}
}
