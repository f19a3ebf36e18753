package repository

import (
	"Driftline/internal/model"
	"Driftline/internal/pkg/consts"
	"context"

	"gorm.io/gorm"
)

// DMPartner 私聊频道及其对端成员
type DMPartner struct {
	ChannelID   uint64
	PartnerID   uint64
	PartnerName string
}

type DashboardRepo interface {
	CountUserChannels(ctx context.Context, userID uint64, channelType int) (int64, error)
	ListDMPartners(ctx context.Context, userID uint64) ([]*DMPartner, error)
}

type DashboardRepoImpl struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepo {
	return &DashboardRepoImpl{db: db}
}

func (s *DashboardRepoImpl) CountUserChannels(ctx context.Context, userID uint64, channelType int) (int64, error) {
	var count int64
	query := s.db.WithContext(ctx).
		Model(&model.Channel{}).
		Joins("JOIN channel_members ON channel_members.channel_id = channels.id").
		Where("channel_members.user_id = ?", userID)
	if channelType != 0 {
		query = query.Where("channels.type = ?", channelType)
	}
	result := query.Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// ListDMPartners 每个私聊频道取自己之外的那个成员
func (s *DashboardRepoImpl) ListDMPartners(ctx context.Context, userID uint64) ([]*DMPartner, error) {
	partners := make([]*DMPartner, 0)
	result := s.db.WithContext(ctx).
		Table("channels").
		Select("channels.id AS channel_id, users.id AS partner_id, users.name AS partner_name").
		Joins("JOIN channel_members mine ON mine.channel_id = channels.id AND mine.user_id = ?", userID).
		Joins("JOIN channel_members theirs ON theirs.channel_id = channels.id AND theirs.user_id != ?", userID).
		Joins("JOIN users ON users.id = theirs.user_id").
		Where("channels.type = ?", consts.ChannelTypeDM).
		Scan(&partners)
	if result.Error != nil {
		return nil, result.Error
	}
	return partners, nil
}
