package util

import (
	"testing"
	"time"
)

func TestStrToUint64(t *testing.T) {
	if got := StrToUint64("42"); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := StrToUint64("abc"); got != 0 {
		t.Fatalf("garbage must map to zero, got %d", got)
	}
	if got := StrToUint64(nil); got != 0 {
		t.Fatalf("nil must map to zero, got %d", got)
	}
	if got := StrToUint64(42); got != 0 {
		t.Fatalf("non-string must map to zero, got %d", got)
	}
}

func TestStrToTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	got := StrToTime(now.Format(time.RFC3339Nano))
	if !got.Equal(now) {
		t.Fatalf("expected %v, got %v", now, got)
	}
	if !StrToTime("yesterday").IsZero() {
		t.Fatal("garbage must map to the zero time")
	}
}

func TestStrField(t *testing.T) {
	if got := StrField("x"); got != "x" {
		t.Fatalf("expected x, got %q", got)
	}
	if got := StrField(nil); got != "" {
		t.Fatalf("nil must map to empty, got %q", got)
	}
}
