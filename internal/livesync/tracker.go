package livesync

import (
	"context"
	log "log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"Driftline/internal/realtime/presence"
)

// PresenceChannel 在线状态频道的最小依赖面
type PresenceChannel interface {
	On(ev presence.Event, handler func())
	Publish(ctx context.Context, rec presence.Record) error
	Snapshot(ctx context.Context) (map[string][]presence.Record, error)
	Leave(ctx context.Context) error
}

// ChannelJoiner 建立频道连接，由装配方注入
type ChannelJoiner func(ctx context.Context, name, localKey string) (PresenceChannel, error)

// JoinChannel 默认的 redis 实现
func JoinChannel(ctx context.Context, name, localKey string) (PresenceChannel, error) {
	ch, err := presence.Join(ctx, name, localKey)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// PresenceTracker 维护频道内的在线用户集合
// 集合只来自快照重读，频道不可用时保持为空（一律视为离线）
type PresenceTracker struct {
	join        ChannelJoiner
	channelName string

	mu       sync.Mutex
	ch       PresenceChannel
	userID   uint64
	online   map[uint64]struct{}
	onChange func(online []uint64)
}

func NewPresenceTracker(join ChannelJoiner, channelName string) *PresenceTracker {
	return &PresenceTracker{
		join:        join,
		channelName: channelName,
		online:      make(map[uint64]struct{}),
	}
}

// SetOnChange 在线集合发生变化时回调
func (t *PresenceTracker) SetOnChange(fn func(online []uint64)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Attach 按当前身份接入频道
// 先拆掉旧连接再建新连接，任一时刻至多持有一个频道
func (t *PresenceTracker) Attach(ctx context.Context, userID uint64, enabled bool) {
	t.Detach(ctx)

	t.mu.Lock()
	t.userID = userID
	t.mu.Unlock()

	if !enabled || userID == 0 {
		return
	}

	ch, err := t.join(ctx, t.channelName, strconv.FormatUint(userID, 10))
	if err != nil {
		// 建连失败不重试，集合保持为空，下次身份变化时再尝试
		log.Warn("presence channel join failed", "user_id", userID, "err", err)
		return
	}

	t.mu.Lock()
	t.ch = ch
	t.mu.Unlock()

	// join/leave 事件同样只触发快照重读，sync 已经覆盖
	ch.On(presence.EventSync, t.resync)

	if err := ch.Publish(ctx, presence.Record{UserID: userID, Since: time.Now()}); err != nil {
		log.Warn("presence publish failed", "user_id", userID, "err", err)
	}

	t.resync()
}

// Detach 退出频道并清空在线集合，可重复调用
func (t *PresenceTracker) Detach(ctx context.Context) {
	t.mu.Lock()
	ch := t.ch
	t.ch = nil
	cleared := len(t.online) > 0
	t.online = make(map[uint64]struct{})
	fn := t.onChange
	t.mu.Unlock()

	if ch != nil {
		if err := ch.Leave(ctx); err != nil {
			log.Warn("presence channel leave failed", "err", err)
		}
	}
	if cleared && fn != nil {
		fn(nil)
	}
}

// resync 重读快照整体替换在线集合
// 读取失败保持上一次的集合不动
func (t *PresenceTracker) resync() {
	t.mu.Lock()
	ch := t.ch
	t.mu.Unlock()
	if ch == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	snap, err := ch.Snapshot(ctx)
	if err != nil {
		log.Warn("presence snapshot failed", "err", err)
		return
	}

	// 同一用户多端在线只记一次
	next := make(map[uint64]struct{}, len(snap))
	for _, recs := range snap {
		for _, rec := range recs {
			if rec.UserID != 0 {
				next[rec.UserID] = struct{}{}
			}
		}
	}

	t.mu.Lock()
	changed := len(next) != len(t.online)
	if !changed {
		for id := range next {
			if _, ok := t.online[id]; !ok {
				changed = true
				break
			}
		}
	}
	t.online = next
	fn := t.onChange
	t.mu.Unlock()

	if changed && fn != nil {
		fn(t.OnlineUserIDs())
	}
}

// IsOnline 集合里没有就是离线
func (t *PresenceTracker) IsOnline(userID uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.online[userID]
	return ok
}

func (t *PresenceTracker) OnlineUserIDs() []uint64 {
	t.mu.Lock()
	ids := make([]uint64, 0, len(t.online))
	for id := range t.online {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
