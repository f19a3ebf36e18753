package livesync

import (
	"context"
	log "log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"Driftline/internal/pkg/consts"
	"Driftline/internal/realtime/feed"
)

type DashboardStats struct {
	ChannelCount   int64 `json:"channel_count"`
	DMPartnerCount int64 `json:"dm_partner_count"`
	TotalUserCount int64 `json:"total_user_count"`
}

type ChannelSummary struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type DMStat struct {
	PartnerID    uint64 `json:"partner_id"`
	PartnerName  string `json:"partner_name"`
	MessageCount int64  `json:"message_count"`
}

// DashboardAggregate 看板一次性拉回的全量快照
type DashboardAggregate struct {
	Stats          DashboardStats   `json:"stats"`
	Channels       []ChannelSummary `json:"channels"`
	DirectMessages []ChannelSummary `json:"direct_messages"`
	DMStats        []DMStat         `json:"dm_stats"`
}

// AggregateFetcher 聚合数据来源，由装配方注入
type AggregateFetcher interface {
	FetchAggregate(ctx context.Context, userID uint64) (*DashboardAggregate, error)
}

// DashboardRefresher 订阅四张表的变更，任何一条都触发一次全量刷新
// 刷新失败吞掉，上一份快照原样保留
type DashboardRefresher struct {
	feed     feed.Source
	fetch    AggregateFetcher
	coalesce bool
	sf       singleflight.Group

	mu       sync.Mutex
	subs     []*feed.Subscription
	userID   uint64
	agg      *DashboardAggregate
	onUpdate func(*DashboardAggregate)
}

// NewDashboardRefresher coalesce 开启时并发刷新合并为一次拉取
func NewDashboardRefresher(src feed.Source, fetcher AggregateFetcher, coalesce bool) *DashboardRefresher {
	return &DashboardRefresher{feed: src, fetch: fetcher, coalesce: coalesce}
}

func (r *DashboardRefresher) SetOnUpdate(fn func(*DashboardAggregate)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

// Attach 四张表各开一路订阅，并做一次初始刷新
func (r *DashboardRefresher) Attach(userID uint64) {
	r.Detach()

	r.mu.Lock()
	r.userID = userID
	r.mu.Unlock()

	if userID == 0 {
		return
	}

	trigger := func(feed.Row) { go r.Refresh(context.Background()) }

	descs := []feed.Descriptor{
		{Table: consts.TableMessages, Event: feed.EventInsert},
		{Table: consts.TableChannels, Event: feed.EventAny},
		{Table: consts.TableUsers, Event: feed.EventAny},
		{Table: consts.TableChannelMembers, Event: feed.EventAny},
	}

	subs := make([]*feed.Subscription, 0, len(descs))
	for _, d := range descs {
		subs = append(subs, r.feed.Subscribe(d, trigger))
	}

	r.mu.Lock()
	r.subs = subs
	r.mu.Unlock()

	r.Refresh(context.Background())
}

// Detach 四路订阅一次性拆除，可重复调用
func (r *DashboardRefresher) Detach() {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.userID = 0
	r.agg = nil
	r.mu.Unlock()

	for _, sub := range subs {
		r.feed.Unsubscribe(sub)
	}
}

// Refresh 拉取并整体替换快照，不返回错误
func (r *DashboardRefresher) Refresh(ctx context.Context) {
	r.mu.Lock()
	userID := r.userID
	r.mu.Unlock()
	if userID == 0 {
		return
	}

	var agg *DashboardAggregate
	var err error
	if r.coalesce {
		var v interface{}
		v, err, _ = r.sf.Do(strconv.FormatUint(userID, 10), func() (interface{}, error) {
			return r.fetch.FetchAggregate(ctx, userID)
		})
		agg, _ = v.(*DashboardAggregate)
	} else {
		agg, err = r.fetch.FetchAggregate(ctx, userID)
	}
	if err != nil || agg == nil {
		log.Warn("dashboard refresh failed", "user_id", userID, "err", err)
		return
	}

	r.mu.Lock()
	// 刷新期间可能已拆除或换人，过期的结果丢弃
	if r.userID != userID {
		r.mu.Unlock()
		return
	}
	r.agg = agg
	fn := r.onUpdate
	r.mu.Unlock()

	if fn != nil {
		fn(agg)
	}
}

// Aggregate 最近一次成功刷新的快照，可能为 nil
func (r *DashboardRefresher) Aggregate() *DashboardAggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agg
}
