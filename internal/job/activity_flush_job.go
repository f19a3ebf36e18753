package job

import (
	"Driftline/internal/service"
	"context"
	log "log/slog"
)

// ActivityFlushJob 把 redis 里攒的活跃时间戳批量写回数据库
type ActivityFlushJob struct {
	activitySvc service.ActivityService
}

func NewActivityFlushJob(activitySvc service.ActivityService) *ActivityFlushJob {
	return &ActivityFlushJob{activitySvc: activitySvc}
}

func (s *ActivityFlushJob) Run() {
	ctx := context.Background()
	if err := s.activitySvc.FlushLastActive(ctx); err != nil {
		log.Error("activity flush failed", "err", err)
	}
}
