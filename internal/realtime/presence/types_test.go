package presence

import (
	"testing"
	"time"
)

func TestRecordExpired(t *testing.T) {
	now := time.Now()

	fresh := Record{ExpiresAt: now.Add(time.Minute)}
	if fresh.Expired(now) {
		t.Fatal("future expiry must not read as expired")
	}

	stale := Record{ExpiresAt: now.Add(-time.Second)}
	if !stale.Expired(now) {
		t.Fatal("past expiry must read as expired")
	}

	// 没有过期时间的记录永远有效
	open := Record{}
	if open.Expired(now) {
		t.Fatal("zero expiry must never expire")
	}
}
