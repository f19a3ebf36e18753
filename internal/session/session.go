package session

import (
	"context"
	log "log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"

	"Driftline/internal/api/config"
	"Driftline/internal/api/dto"
	"Driftline/internal/livesync"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/redis"
	"Driftline/internal/realtime/feed"
	"Driftline/internal/service"
)

const writeTimeout = 10 * time.Second

// ClientFrame 客户端帧
type ClientFrame struct {
	Type      string          `json:"type"`
	ChannelID uint64          `json:"channel_id,omitempty"`
	Visible   *bool           `json:"visible,omitempty"`
	Message   *dto.MessageDTO `json:"message,omitempty"`
}

// ServerFrame 服务端帧
type ServerFrame struct {
	Type      string      `json:"type"`
	Online    []uint64    `json:"online,omitempty"`
	Message   interface{} `json:"message,omitempty"`
	Dashboard interface{} `json:"dashboard,omitempty"`
}

// Session 一条 websocket 连接对应的同步会话
// 在线跟踪、消息流、看板刷新、活跃上报都挂在这条连接的生命周期上
type Session struct {
	userID uint64
	conn   *websocket.Conn

	tracker   *livesync.PresenceTracker
	stream    *livesync.MessageStream
	refresher *livesync.DashboardRefresher
	beacon    *livesync.StatusBeacon

	messageSvc service.MessageService
	channelSvc service.ChannelService

	writeMu   sync.Mutex
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// New token 透传给回环 HTTP 客户端，身份查询和聚合拉取走自己的接口
func New(userID uint64, token string, conn *websocket.Conn, bus feed.Source,
	messageSvc service.MessageService, channelSvc service.ChannelService) *Session {

	remote := livesync.NewRemoteClient(config.Cfg.Endpoints, token)

	return &Session{
		userID:     userID,
		conn:       conn,
		tracker:    livesync.NewPresenceTracker(livesync.JoinChannel, config.Cfg.Sync.PresenceChannel),
		stream:     livesync.NewMessageStream(bus, remote),
		refresher:  livesync.NewDashboardRefresher(bus, remote, config.Cfg.Sync.CoalesceRefresh),
		beacon:     livesync.NewStatusBeacon(livesync.NewAsyncBeacon(remote), livesync.NewSyncBeacon(remote)),
		messageSvc: messageSvc,
		channelSvc: channelSvc,
	}
}

// Run 阻塞到连接关闭
func (s *Session) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.tracker.SetOnChange(func(online []uint64) {
		s.writeFrame(&ServerFrame{Type: "presence", Online: online})
	})
	s.stream.SetOnAppend(func(m livesync.Message) {
		s.writeFrame(&ServerFrame{Type: "message", Message: m})
	})
	s.refresher.SetOnUpdate(func(agg *livesync.DashboardAggregate) {
		s.writeFrame(&ServerFrame{Type: "dashboard", Dashboard: agg})
	})

	s.tracker.Attach(ctx, s.userID, true)
	s.beacon.Attach(s.userID, true)
	s.refresher.Attach(s.userID)

	// 个人推送频道作为低延迟提示通路，和行变更流汇到同一个幂等入口
	pubsub := redis.Subscribe(ctx, consts.IMUserKey+strconv.FormatUint(s.userID, 10))
	go s.relayPush(ctx, pubsub)

	log.Info("session started", "user_id", s.userID)

	s.readLoop()

	_ = pubsub.Close()
	s.Close()
}

// Close 拆除所有组件，可重复调用
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.beacon.HandleUnload()
		s.beacon.Detach()
		s.tracker.Detach(context.Background())
		s.stream.Detach()
		s.refresher.Detach()
		if s.cancel != nil {
			s.cancel()
		}
		_ = s.conn.Close()
		log.Info("session closed", "user_id", s.userID)
	})
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn("malformed client frame", "user_id", s.userID, "err", err)
			continue
		}
		s.handleFrame(&frame)
	}
}

func (s *Session) handleFrame(frame *ClientFrame) {
	switch frame.Type {
	case "open_channel":
		s.openChannel(frame.ChannelID)
	case "visibility":
		if frame.Visible != nil {
			s.beacon.HandleVisibility(*frame.Visible)
		}
	case "append":
		// 客户端乐观插入的回执路径，按消息 ID 幂等
		if frame.Message != nil {
			s.stream.AddMessage(toStreamMessage(frame.Message))
		}
	default:
		log.Warn("unknown client frame", "user_id", s.userID, "type", frame.Type)
	}
}

// openChannel 校验成员身份，拉历史后切流
func (s *Session) openChannel(channelID uint64) {
	if channelID == 0 {
		return
	}

	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFn()

	if err := s.channelSvc.CheckMember(ctx, channelID, s.userID); err != nil {
		log.Warn("open channel denied", "user_id", s.userID, "channel_id", channelID, "err", err)
		return
	}

	history, err := s.messageSvc.GetChannelMessages(ctx, channelID, s.userID, 0)
	if err != nil {
		log.Warn("load channel history failed", "channel_id", channelID, "err", err)
		history = nil
	}

	initial := make([]livesync.Message, 0, len(history))
	for _, msgDTO := range history {
		initial = append(initial, toStreamMessage(msgDTO))
	}
	s.stream.Attach(channelID, initial)
}

// relayPush 个人频道里的消息转入消息流，非当前频道或线程回复直接丢弃
func (s *Session) relayPush(ctx context.Context, pubsub *goredis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var msgDTO dto.MessageDTO
			if err := json.Unmarshal([]byte(msg.Payload), &msgDTO); err != nil {
				continue
			}
			if msgDTO.ParentID != "" || msgDTO.ChannelID != s.stream.ChannelID() {
				continue
			}
			s.stream.AddMessage(toStreamMessage(&msgDTO))
		}
	}
}

func (s *Session) writeFrame(frame *ServerFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn("session write failed", "user_id", s.userID, "err", err)
	}
}

func toStreamMessage(msgDTO *dto.MessageDTO) livesync.Message {
	return livesync.Message{
		ID:        msgDTO.ID,
		ChannelID: msgDTO.ChannelID,
		Sender: livesync.SenderIdentity{
			ID:        msgDTO.Sender.ID,
			Name:      msgDTO.Sender.Name,
			Email:     msgDTO.Sender.Email,
			AvatarURL: msgDTO.Sender.AvatarURL,
		},
		Content:        msgDTO.Content,
		ParentID:       msgDTO.ParentID,
		AttachmentURL:  msgDTO.AttachmentURL,
		AttachmentMime: msgDTO.AttachmentMime,
		CreatedAt:      msgDTO.CreatedAt,
	}
}
