package presence

import (
	"Driftline/internal/api/config"
	"Driftline/internal/pkg/consts"
	rdb "Driftline/internal/pkg/redis"
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Channel 一个在线状态广播频道的成员端
// 心跳记录以哈希字段存放，成员变动通过 pub/sub 通知全体成员
// 每个实例独立订阅，在线集合始终由各自重读快照得出
type Channel struct {
	name      string
	localKey  string
	hashKey   string
	eventsKey string
	ttl       time.Duration

	pubsub *redis.PubSub

	mu         sync.Mutex
	handlers   map[Event][]func()
	lastRecord *Record
	closed     bool
	stop       chan struct{}
}

// Join 加入频道并开始接收成员变动通知
// 订阅确认失败视为建连失败，由调用方决定何时重试
func Join(ctx context.Context, name, localKey string) (*Channel, error) {
	pubsub := rdb.Subscribe(ctx, consts.PresenceEventsKey+name)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(err, "join presence channel")
	}

	ttl := time.Duration(config.Cfg.Sync.HeartbeatTTL) * time.Second
	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	c := &Channel{
		name:      name,
		localKey:  localKey,
		hashKey:   consts.PresenceHashKey + name,
		eventsKey: consts.PresenceEventsKey + name,
		ttl:       ttl,
		pubsub:    pubsub,
		handlers:  make(map[Event][]func()),
		stop:      make(chan struct{}),
	}

	go c.eventLoop()
	go c.heartbeatLoop()

	return c, nil
}

// On 注册事件回调，必须在第一条事件到达前完成注册
func (c *Channel) On(ev Event, h func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[ev] = append(c.handlers[ev], h)
}

// Publish 写入本端心跳并广播 join 通知
func (c *Channel) Publish(ctx context.Context, rec Record) error {
	rec.ClientKey = c.localKey
	rec.ExpiresAt = time.Now().Add(c.ttl)

	payload, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	if err = rdb.HSetField(ctx, c.hashKey, c.localKey, payload); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastRecord = &rec
	c.mu.Unlock()

	return c.notify(ctx, EventJoin)
}

// Snapshot 重读频道当前全量成员，过期心跳在这里被过滤
func (c *Channel) Snapshot(ctx context.Context) (map[string][]Record, error) {
	fields, err := rdb.HGetAllFields(ctx, c.hashKey)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	snap := make(map[string][]Record, len(fields))
	for key, raw := range fields {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		if rec.Expired(now) {
			continue
		}
		snap[key] = append(snap[key], rec)
	}
	return snap, nil
}

// Leave 删除本端心跳、广播 leave 并关闭订阅，可重复调用
func (c *Channel) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.lastRecord = nil
	close(c.stop)
	c.mu.Unlock()

	if err := rdb.HDelField(ctx, c.hashKey, c.localKey); err != nil {
		log.Warn("presence leave cleanup failed", "channel", c.name, "err", err)
	}
	_ = c.notify(ctx, EventLeave)

	return c.pubsub.Close()
}

func (c *Channel) notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(&note{Event: string(ev), ClientKey: c.localKey})
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, c.eventsKey, payload)
}

// eventLoop 收到任何成员变动后先抛具体事件，再抛 sync 触发重读
func (c *Channel) eventLoop() {
	for msg := range c.pubsub.Channel() {
		var n note
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			continue
		}
		c.fire(Event(n.Event))
		c.fire(EventSync)
	}
}

// heartbeatLoop 定期续期本端心跳，不广播通知
func (c *Channel) heartbeatLoop() {
	ticker := time.NewTicker(c.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			rec := c.lastRecord
			c.mu.Unlock()
			if rec == nil {
				continue
			}

			refreshed := *rec
			refreshed.ExpiresAt = time.Now().Add(c.ttl)
			payload, err := json.Marshal(&refreshed)
			if err != nil {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err = rdb.HSetField(ctx, c.hashKey, c.localKey, payload); err != nil {
				log.Warn("presence heartbeat failed", "channel", c.name, "err", err)
			}
			cancel()
		case <-c.stop:
			return
		}
	}
}

func (c *Channel) fire(ev Event) {
	c.mu.Lock()
	hs := append([]func(){}, c.handlers[ev]...)
	c.mu.Unlock()

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("presence handler panic", "event", string(ev), "recover", r)
				}
			}()
			h()
		}()
	}
}

// Sweep 清理过期心跳并广播 leave，由定时任务调用
func Sweep(ctx context.Context, name string) (int, error) {
	hashKey := consts.PresenceHashKey + name
	fields, err := rdb.HGetAllFields(ctx, hashKey)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	swept := 0
	for key, raw := range fields {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err == nil && !rec.Expired(now) {
			continue
		}
		if err := rdb.HDelField(ctx, hashKey, key); err != nil {
			return swept, err
		}
		payload, _ := json.Marshal(&note{Event: string(EventLeave), ClientKey: key})
		_ = rdb.Publish(ctx, consts.PresenceEventsKey+name, payload)
		swept++
	}
	return swept, nil
}
