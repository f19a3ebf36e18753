package service

import (
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/redis"
	"Driftline/internal/pkg/util"
	"Driftline/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

// 活跃时间戳先落 redis，定时任务批量回写 users 表
const lastActiveTTL = time.Hour * 24 * 7

type ActivityService interface {
	MarkActive(ctx context.Context, userID uint64) error
	FlushLastActive(ctx context.Context) error
}

type ActivityServiceImpl struct {
	userRepo repository.UserRepo
}

func NewActivityService(userRepo repository.UserRepo) ActivityService {
	return &ActivityServiceImpl{userRepo: userRepo}
}

// MarkActive 尽力而为：写失败只记日志，调用方不关心结果
func (s *ActivityServiceImpl) MarkActive(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return nil
	}

	idStr := strconv.FormatUint(userID, 10)
	err := redis.SetWithExpiration(ctx, consts.LastActiveKey+idStr,
		time.Now().Format(time.RFC3339Nano), lastActiveTTL)
	if err != nil {
		log.Warn("mark active failed", "user_id", userID, "err", err)
		return err
	}
	if err := redis.SAddMember(ctx, consts.LastActiveDirtyKey, idStr); err != nil {
		log.Warn("mark active dirty failed", "user_id", userID, "err", err)
	}
	return nil
}

// FlushLastActive 把待落库的活跃时间戳批量写回数据库
func (s *ActivityServiceImpl) FlushLastActive(ctx context.Context) error {
	ids, err := redis.SPopAll(ctx, consts.LastActiveDirtyKey)
	if err != nil {
		return err
	}

	for _, idStr := range ids {
		userID := util.StrToUint64(idStr)
		if userID == 0 {
			continue
		}

		value, err := redis.GetValue(ctx, consts.LastActiveKey+idStr)
		if err != nil || value == "" {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			continue
		}

		if err := s.userRepo.UpdateLastActiveAt(ctx, userID, at); err != nil {
			log.Warn("flush last active failed", "user_id", userID, "err", err)
			// 落库失败放回集合，下一轮再试
			_ = redis.SAddMember(ctx, consts.LastActiveDirtyKey, idStr)
		}
	}
	return nil
}
