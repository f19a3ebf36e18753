package repository

import (
	"Driftline/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ChannelRepo interface {
	GetChannelById(ctx context.Context, id uint64) (*model.Channel, error)
	GetChannelByPeerKey(ctx context.Context, peerKey string) (*model.Channel, error)
	CreateChannel(ctx context.Context, channel *model.Channel, members []*model.ChannelMember) error
	AddMember(ctx context.Context, member *model.ChannelMember) error
	IsMember(ctx context.Context, channelID, userID uint64) (bool, error)
	GetMemberIds(ctx context.Context, channelID uint64) ([]uint64, error)
	ListUserChannels(ctx context.Context, userID uint64, channelType int) ([]*model.Channel, error)
	UpdateLastMessage(ctx context.Context, channelID uint64, content string, senderID uint64, at time.Time) error
}

type ChannelRepoImpl struct {
	db *gorm.DB
}

func NewChannelRepo(db *gorm.DB) ChannelRepo {
	return &ChannelRepoImpl{db: db}
}

func (s *ChannelRepoImpl) GetChannelById(ctx context.Context, id uint64) (*model.Channel, error) {
	channel := &model.Channel{}
	result := s.db.WithContext(ctx).First(channel, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return channel, nil
}

func (s *ChannelRepoImpl) GetChannelByPeerKey(ctx context.Context, peerKey string) (*model.Channel, error) {
	channel := &model.Channel{}
	result := s.db.WithContext(ctx).
		Where("peer_key = ?", peerKey).
		First(channel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return channel, nil
}

// CreateChannel 频道和初始成员在同一事务里落库
func (s *ChannelRepoImpl) CreateChannel(ctx context.Context, channel *model.Channel, members []*model.ChannelMember) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(channel).Error; err != nil {
			return err
		}
		for _, m := range members {
			m.ChannelID = channel.ID
		}
		if len(members) > 0 {
			if err := tx.Create(members).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ChannelRepoImpl) AddMember(ctx context.Context, member *model.ChannelMember) error {
	return s.db.WithContext(ctx).Create(member).Error
}

func (s *ChannelRepoImpl) IsMember(ctx context.Context, channelID, userID uint64) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).
		Model(&model.ChannelMember{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *ChannelRepoImpl) GetMemberIds(ctx context.Context, channelID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	result := s.db.WithContext(ctx).
		Model(&model.ChannelMember{}).
		Where("channel_id = ?", channelID).
		Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

// ListUserChannels channelType 为 0 时不过滤类型
func (s *ChannelRepoImpl) ListUserChannels(ctx context.Context, userID uint64, channelType int) ([]*model.Channel, error) {
	channels := make([]*model.Channel, 0)
	query := s.db.WithContext(ctx).
		Joins("JOIN channel_members ON channel_members.channel_id = channels.id").
		Where("channel_members.user_id = ?", userID)
	if channelType != 0 {
		query = query.Where("channels.type = ?", channelType)
	}
	result := query.
		Order("channels.last_message_at DESC").
		Find(&channels)
	if result.Error != nil {
		return nil, result.Error
	}
	return channels, nil
}

func (s *ChannelRepoImpl) UpdateLastMessage(ctx context.Context, channelID uint64, content string, senderID uint64, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&model.Channel{}).
		Where("id = ?", channelID).
		Updates(map[string]interface{}{
			"last_msg_cont":   content,
			"last_sender_id":  senderID,
			"last_message_at": at,
		}).Error
}
