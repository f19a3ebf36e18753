package livesync

import (
	"context"
	log "log/slog"
	"sync"
	"time"
)

// BeaconTransport 活跃时间戳的上报通道
type BeaconTransport interface {
	Send(ctx context.Context, userID uint64) error
}

// StatusBeacon 尽力而为的活跃上报：不重试、不确认、任何异常都不外抛
type StatusBeacon struct {
	primary  BeaconTransport // 即发即忘，不等待结果
	fallback BeaconTransport // primary 不可用时的同步兜底

	mu      sync.Mutex
	userID  uint64
	enabled bool
}

func NewStatusBeacon(primary, fallback BeaconTransport) *StatusBeacon {
	return &StatusBeacon{primary: primary, fallback: fallback}
}

// Attach 打开或关闭上报，由打开转关闭时补一次最终写入
func (b *StatusBeacon) Attach(userID uint64, enabled bool) {
	b.mu.Lock()
	wasEnabled := b.enabled
	prevUser := b.userID
	b.userID = userID
	b.enabled = enabled && userID != 0
	b.mu.Unlock()

	if wasEnabled && !enabled {
		b.send(prevUser)
	}
}

// HandleVisibility 仅在转入后台时上报，回到前台不动作
func (b *StatusBeacon) HandleVisibility(visible bool) {
	if visible {
		return
	}
	b.mu.Lock()
	enabled, id := b.enabled, b.userID
	b.mu.Unlock()
	if enabled {
		b.send(id)
	}
}

// HandleUnload 页面卸载路径，语义同转入后台
func (b *StatusBeacon) HandleUnload() {
	b.HandleVisibility(false)
}

// Detach 拆除时补一次最终写入，可重复调用
func (b *StatusBeacon) Detach() {
	b.mu.Lock()
	enabled, id := b.enabled, b.userID
	b.enabled = false
	b.mu.Unlock()

	if enabled {
		b.send(id)
	}
}

func (b *StatusBeacon) send(userID uint64) {
	if userID == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("beacon transport panic", "recover", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if b.primary != nil {
		_ = b.primary.Send(ctx, userID)
		return
	}
	if b.fallback != nil {
		_ = b.fallback.Send(ctx, userID)
	}
}
