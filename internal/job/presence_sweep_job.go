package job

import (
	"Driftline/internal/api/config"
	"Driftline/internal/realtime/presence"
	"context"
	log "log/slog"
)

// PresenceSweepJob 清掉心跳过期的在线记录
// 正常退出会自己摘除，这里兜底处理崩掉的客户端
type PresenceSweepJob struct{}

func NewPresenceSweepJob() *PresenceSweepJob {
	return &PresenceSweepJob{}
}

func (s *PresenceSweepJob) Run() {
	ctx := context.Background()
	removed, err := presence.Sweep(ctx, config.Cfg.Sync.PresenceChannel)
	if err != nil {
		log.Error("presence sweep failed", "err", err)
		return
	}
	if removed > 0 {
		log.Info("presence sweep finished", "removed", removed)
	}
}
