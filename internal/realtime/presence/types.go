package presence

import "time"

// Event 频道事件
type Event string

const (
	// EventSync 全量快照已更新，收到后应重读 Snapshot
	EventSync Event = "sync"
	EventJoin Event = "join"
	EventLeave Event = "leave"
)

// Record 一条在线心跳记录
// 只存在于频道的广播状态里，连接断开或过期后即消失
type Record struct {
	ClientKey string    `json:"client_key"`
	UserID    uint64    `json:"user_id"`
	Since     time.Time `json:"since"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 心跳是否已过期
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now)
}

// note 成员变动通知的线上结构
type note struct {
	Event     string `json:"event"`
	ClientKey string `json:"client_key"`
}
