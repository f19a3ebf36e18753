package service

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/model"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/kafka"
	"Driftline/internal/repository"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

type ChannelService interface {
	CreateChannel(ctx context.Context, creatorID uint64, createDTO *dto.CreateChannelDTO) (*dto.ChannelDTO, error)
	JoinChannel(ctx context.Context, channelID, userID uint64) error
	OpenDM(ctx context.Context, userID, targetUserID uint64) (*dto.ChannelDTO, error)
	ListChannels(ctx context.Context, userID uint64, channelType int) ([]*dto.ChannelDTO, error)
	CheckMember(ctx context.Context, channelID, userID uint64) error
}

type ChannelServiceImpl struct {
	channelRepo repository.ChannelRepo
	userRepo    repository.UserRepo
	producer    *kafka.Producer
}

func NewChannelService(channelRepo repository.ChannelRepo, userRepo repository.UserRepo, producer *kafka.Producer) ChannelService {
	return &ChannelServiceImpl{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		producer:    producer,
	}
}

func (s *ChannelServiceImpl) CreateChannel(ctx context.Context, creatorID uint64, createDTO *dto.CreateChannelDTO) (*dto.ChannelDTO, error) {
	channel := &model.Channel{
		Type:      consts.ChannelTypePublic,
		Name:      createDTO.Name,
		CreatorID: creatorID,
	}
	members := []*model.ChannelMember{{UserID: creatorID}}

	err := s.channelRepo.CreateChannel(ctx, channel, members)
	if err != nil {
		return nil, err
	}

	s.producer.PublishRow(consts.TableChannels, kafka.RowInsert, channelRow(channel))
	s.producer.PublishRow(consts.TableChannelMembers, kafka.RowInsert, memberRow(channel.ID, creatorID))
	return channelDTO(channel), nil
}

func (s *ChannelServiceImpl) JoinChannel(ctx context.Context, channelID, userID uint64) error {
	channel, err := s.channelRepo.GetChannelById(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return ErrChannelNotFound
	}
	// 私聊频道不开放加入
	if channel.Type == consts.ChannelTypeDM {
		return UnauthorizedError
	}

	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrChannelMemberExist
	}

	err = s.channelRepo.AddMember(ctx, &model.ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
	})
	if err != nil {
		return err
	}

	s.producer.PublishRow(consts.TableChannelMembers, kafka.RowInsert, memberRow(channelID, userID))
	return nil
}

// OpenDM 打开和目标用户的私聊，同一对用户复用同一个频道
func (s *ChannelServiceImpl) OpenDM(ctx context.Context, userID, targetUserID uint64) (*dto.ChannelDTO, error) {
	if userID == targetUserID {
		return nil, ErrDMWithSelf
	}

	target, err := s.userRepo.GetUserById(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	peerKey := dmPeerKey(userID, targetUserID)
	existing, err := s.channelRepo.GetChannelByPeerKey(ctx, peerKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return channelDTO(existing), nil
	}

	name := ""
	if target.Name != nil {
		name = *target.Name
	}
	channel := &model.Channel{
		Type:      consts.ChannelTypeDM,
		Name:      name,
		PeerKey:   &peerKey,
		CreatorID: userID,
	}
	members := []*model.ChannelMember{{UserID: userID}, {UserID: targetUserID}}

	err = s.channelRepo.CreateChannel(ctx, channel, members)
	if err != nil {
		// 两端同时发起私聊时撞 peer_key 唯一键，读回已建好的那个
		if isDuplicateKeyError(err) {
			existing, getErr := s.channelRepo.GetChannelByPeerKey(ctx, peerKey)
			if getErr == nil && existing != nil {
				return channelDTO(existing), nil
			}
		}
		return nil, err
	}

	s.producer.PublishRow(consts.TableChannels, kafka.RowInsert, channelRow(channel))
	s.producer.PublishRow(consts.TableChannelMembers, kafka.RowInsert,
		memberRow(channel.ID, userID), memberRow(channel.ID, targetUserID))
	return channelDTO(channel), nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func (s *ChannelServiceImpl) ListChannels(ctx context.Context, userID uint64, channelType int) ([]*dto.ChannelDTO, error) {
	channels, err := s.channelRepo.ListUserChannels(ctx, userID, channelType)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ChannelDTO, 0, len(channels))
	for _, channel := range channels {
		out = append(out, channelDTO(channel))
	}
	return out, nil
}

func (s *ChannelServiceImpl) CheckMember(ctx context.Context, channelID, userID uint64) error {
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotChannelMember
	}
	return nil
}

// dmPeerKey 小 ID 在前，保证两个方向算出同一个键
func dmPeerKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

func channelDTO(channel *model.Channel) *dto.ChannelDTO {
	out := &dto.ChannelDTO{
		ID:            channel.ID,
		Type:          channel.Type,
		Name:          channel.Name,
		LastMessageAt: channel.LastMessageAt,
	}
	if channel.LastMsgCont != nil {
		out.LastMsgCont = *channel.LastMsgCont
	}
	if channel.LastSenderID != nil {
		out.LastSenderID = *channel.LastSenderID
	}
	return out
}

func channelRow(channel *model.Channel) map[string]interface{} {
	return map[string]interface{}{
		"id":         strconv.FormatUint(channel.ID, 10),
		"type":       strconv.Itoa(channel.Type),
		"name":       channel.Name,
		"creator_id": strconv.FormatUint(channel.CreatorID, 10),
		"created_at": channel.CreatedAt.Format(time.RFC3339Nano),
	}
}

func memberRow(channelID, userID uint64) map[string]interface{} {
	return map[string]interface{}{
		"channel_id": strconv.FormatUint(channelID, 10),
		"user_id":    strconv.FormatUint(userID, 10),
	}
}
