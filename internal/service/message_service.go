package service

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/kafka"
	"Driftline/internal/pkg/minio"
	"Driftline/internal/pkg/mongo"
	"Driftline/internal/pkg/redis"
	"Driftline/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultHistoryLimit = 50

// DeletedSenderIdentity 发送者注销后的占位身份
var DeletedSenderIdentity = dto.IdentityDTO{
	ID:   "deleted-user",
	Name: "削除済みユーザー",
}

type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	GetChannelMessages(ctx context.Context, channelID, userID uint64, limit int) ([]*dto.MessageDTO, error)
	GetThread(ctx context.Context, channelID, userID uint64, parentID string) ([]*dto.MessageDTO, error)
}

type MessageServiceImpl struct {
	messageRepo mongo.MessageRepo
	channelRepo repository.ChannelRepo
	userRepo    repository.UserRepo
	producer    *kafka.Producer
}

func NewMessageService(messageRepo mongo.MessageRepo, channelRepo repository.ChannelRepo,
	userRepo repository.UserRepo, producer *kafka.Producer) MessageService {
	return &MessageServiceImpl{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		userRepo:    userRepo,
		producer:    producer,
	}
}

// SendMessage 落库后广播行变更，再给频道成员推一份低延迟提示
// 两条通路送达同一条消息，接收端按消息 ID 幂等去重
func (s *MessageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	isMember, err := s.channelRepo.IsMember(ctx, req.ChannelID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotChannelMember
	}

	msg := &mongo.Message{
		ID:        primitive.NewObjectID().Hex(),
		ChannelID: req.ChannelID,
		SenderID:  senderID,
		Content:   req.Content,
		ParentID:  req.ParentID,
		CreatedAt: time.Now(),
	}
	if req.ObjectKey != "" {
		msg.Payload = &mongo.Payload{
			MimeType:  req.MimeType,
			ObjectKey: req.ObjectKey,
		}
	}

	err = s.messageRepo.SaveMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	// 线程回复不改频道的最近消息
	if msg.ParentID == "" {
		err = s.channelRepo.UpdateLastMessage(ctx, msg.ChannelID, msg.Content, senderID, msg.CreatedAt)
		if err != nil {
			log.Warn("update last message failed", "channel_id", msg.ChannelID, "err", err)
		}
	}

	s.producer.PublishRow(consts.TableMessages, kafka.RowInsert, messageRow(msg))

	msgDTO := s.toMessageDTO(ctx, msg)
	s.pushToMembers(ctx, msgDTO)
	return msgDTO, nil
}

func (s *MessageServiceImpl) GetChannelMessages(ctx context.Context, channelID, userID uint64, limit int) ([]*dto.MessageDTO, error) {
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotChannelMember
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	msgs, err := s.messageRepo.GetTopLevel(ctx, channelID, limit)
	if err != nil {
		return nil, err
	}
	return s.toMessageDTOs(ctx, msgs), nil
}

func (s *MessageServiceImpl) GetThread(ctx context.Context, channelID, userID uint64, parentID string) ([]*dto.MessageDTO, error) {
	isMember, err := s.channelRepo.IsMember(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotChannelMember
	}

	msgs, err := s.messageRepo.GetThread(ctx, channelID, parentID)
	if err != nil {
		return nil, err
	}
	return s.toMessageDTOs(ctx, msgs), nil
}

// pushToMembers 通过个人频道给成员推一份，只是提示，不保证送达
func (s *MessageServiceImpl) pushToMembers(ctx context.Context, msgDTO *dto.MessageDTO) {
	memberIDs, err := s.channelRepo.GetMemberIds(ctx, msgDTO.ChannelID)
	if err != nil {
		log.Warn("load channel members failed", "channel_id", msgDTO.ChannelID, "err", err)
		return
	}

	payload, err := json.Marshal(msgDTO)
	if err != nil {
		return
	}
	for _, id := range memberIDs {
		key := consts.IMUserKey + strconv.FormatUint(id, 10)
		if err := redis.Publish(ctx, key, payload); err != nil {
			log.Warn("push message failed", "user_id", id, "err", err)
		}
	}
}

func (s *MessageServiceImpl) toMessageDTOs(ctx context.Context, msgs []*mongo.Message) []*dto.MessageDTO {
	senderIDs := make([]uint64, 0, len(msgs))
	seen := make(map[uint64]struct{})
	for _, msg := range msgs {
		if msg.SenderID == 0 {
			continue
		}
		if _, ok := seen[msg.SenderID]; ok {
			continue
		}
		seen[msg.SenderID] = struct{}{}
		senderIDs = append(senderIDs, msg.SenderID)
	}

	identities := s.loadIdentities(ctx, senderIDs)
	out := make([]*dto.MessageDTO, 0, len(msgs))
	for _, msg := range msgs {
		msgDTO := baseMessageDTO(msg)
		identity, ok := identities[msg.SenderID]
		if !ok {
			identity = DeletedSenderIdentity
		}
		msgDTO.Sender = identity
		out = append(out, msgDTO)
	}
	return out
}

func (s *MessageServiceImpl) toMessageDTO(ctx context.Context, msg *mongo.Message) *dto.MessageDTO {
	msgDTO := baseMessageDTO(msg)
	identities := s.loadIdentities(ctx, []uint64{msg.SenderID})
	identity, ok := identities[msg.SenderID]
	if !ok {
		identity = DeletedSenderIdentity
	}
	msgDTO.Sender = identity
	return msgDTO
}

// loadIdentities 查不到或已注销的发送者不会出现在结果里
func (s *MessageServiceImpl) loadIdentities(ctx context.Context, ids []uint64) map[uint64]dto.IdentityDTO {
	out := make(map[uint64]dto.IdentityDTO)
	if len(ids) == 0 {
		return out
	}

	users, err := s.userRepo.GetUserByIds(ctx, ids)
	if err != nil {
		log.Warn("load sender identities failed", "err", err)
		return out
	}

	for _, user := range users {
		if user.IsDelete {
			continue
		}
		identity := dto.IdentityDTO{ID: strconv.FormatUint(user.ID, 10)}
		if user.Name != nil {
			identity.Name = *user.Name
		}
		if user.Email != nil {
			identity.Email = *user.Email
		}
		if user.AvatarURL != nil {
			identity.AvatarURL = minio.GetPublicURL(*user.AvatarURL)
		}
		out[user.ID] = identity
	}
	return out
}

func baseMessageDTO(msg *mongo.Message) *dto.MessageDTO {
	msgDTO := &dto.MessageDTO{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		ParentID:  msg.ParentID,
		CreatedAt: msg.CreatedAt,
	}
	if msg.Payload != nil {
		msgDTO.AttachmentURL = minio.GetPublicURL(msg.Payload.ObjectKey)
		msgDTO.AttachmentMime = msg.Payload.MimeType
	}
	return msgDTO
}

// messageRow 行事件载荷，值统一为字符串
func messageRow(msg *mongo.Message) map[string]interface{} {
	row := map[string]interface{}{
		"id":         msg.ID,
		"channel_id": strconv.FormatUint(msg.ChannelID, 10),
		"sender_id":  strconv.FormatUint(msg.SenderID, 10),
		"content":    msg.Content,
		"parent_id":  msg.ParentID,
		"created_at": msg.CreatedAt.Format(time.RFC3339Nano),
	}
	if msg.Payload != nil {
		row["attachment_url"] = minio.GetPublicURL(msg.Payload.ObjectKey)
		row["attachment_mime"] = msg.Payload.MimeType
	}
	return row
}
