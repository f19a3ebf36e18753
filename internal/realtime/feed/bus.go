package feed

import (
	"Driftline/internal/pkg/kafka"
	log "log/slog"
	"strings"
	"sync"
)

// Source 订阅侧接口，组件持有它而不是具体的 Bus
type Source interface {
	Subscribe(desc Descriptor, h Handler) *Subscription
	Unsubscribe(sub *Subscription)
}

// Bus 进程内的行变更分发器
// 消费协程把 RowEvent 灌进来，动态订阅方按表/事件/谓词过滤接收
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*Subscription)}
}

func (b *Bus) Subscribe(desc Descriptor, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, desc: desc, handler: h}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe 幂等，nil 或已退订的句柄直接忽略
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub.id)
}

// Dispatch 将一条行变更事件逐行派发给匹配的订阅
func (b *Bus) Dispatch(ev *kafka.RowEvent) {
	eventType := EventType(strings.ToLower(ev.Type))

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.desc.Table != ev.Table {
			continue
		}
		if sub.desc.Event != EventAny && sub.desc.Event != eventType {
			continue
		}
		matched = append(matched, sub)
	}
	b.mu.RUnlock()

	for _, row := range ev.Data {
		for _, sub := range matched {
			if sub.desc.Predicate != nil && !sub.desc.Predicate(Row(row)) {
				continue
			}
			safeInvoke(sub, Row(row))
		}
	}
}

// safeInvoke 回调里的 panic 不允许带崩消费协程
func safeInvoke(sub *Subscription, row Row) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("feed handler panic", "table", sub.desc.Table, "recover", r)
		}
	}()
	sub.handler(row)
}
