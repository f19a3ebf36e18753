package livesync

import (
	"context"
	"sync"
	"time"

	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/util"
	"Driftline/internal/realtime/feed"
)

// SenderIdentity 消息发送者的展示身份
type SenderIdentity struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// DeletedSender 账号已注销时的占位身份，消息本身照常展示
var DeletedSender = SenderIdentity{ID: "deleted-user", Name: "削除済みユーザー"}

// IdentityLookup 按用户 ID 查展示身份，未找到返回 (nil, nil)
type IdentityLookup interface {
	Lookup(ctx context.Context, userID uint64) (*SenderIdentity, error)
}

type Message struct {
	ID             string         `json:"id"`
	ChannelID      uint64         `json:"channel_id"`
	Sender         SenderIdentity `json:"sender"`
	Content        string         `json:"content"`
	ParentID       string         `json:"parent_id,omitempty"`
	AttachmentURL  string         `json:"attachment_url,omitempty"`
	AttachmentMime string         `json:"attachment_mime,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// MessageStream 单个频道的顶层消息列表
// 本地乐观插入和变更流回流走同一个入口，按消息 ID 幂等
type MessageStream struct {
	feed   feed.Source
	lookup IdentityLookup

	mu        sync.Mutex
	sub       *feed.Subscription
	channelID uint64
	messages  []Message
	seen      map[string]struct{}
	onAppend  func(Message)
}

func NewMessageStream(src feed.Source, lookup IdentityLookup) *MessageStream {
	return &MessageStream{
		feed:   src,
		lookup: lookup,
		seen:   make(map[string]struct{}),
	}
}

// SetOnAppend 消息真正入列时回调
func (s *MessageStream) SetOnAppend(fn func(Message)) {
	s.mu.Lock()
	s.onAppend = fn
	s.mu.Unlock()
}

// Attach 切换到目标频道
// 旧订阅先退订，列表整体替换为 initial，再按频道谓词开一路新订阅
func (s *MessageStream) Attach(channelID uint64, initial []Message) {
	s.Detach()

	s.mu.Lock()
	s.channelID = channelID
	s.messages = make([]Message, 0, len(initial))
	s.seen = make(map[string]struct{}, len(initial))
	s.mu.Unlock()

	for _, m := range initial {
		s.AddMessage(m)
	}

	sub := s.feed.Subscribe(feed.Descriptor{
		Table: consts.TableMessages,
		Event: feed.EventInsert,
		Predicate: func(row feed.Row) bool {
			return util.StrToUint64(row["channel_id"]) == channelID
		},
	}, s.handleInsert)

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
}

// Detach 退订并清空列表，可重复调用
func (s *MessageStream) Detach() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.channelID = 0
	s.messages = nil
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	if sub != nil {
		s.feed.Unsubscribe(sub)
	}
}

// AddMessage 幂等插入，返回是否真正追加
func (s *MessageStream) AddMessage(m Message) bool {
	if m.ID == "" {
		return false
	}

	s.mu.Lock()
	if _, ok := s.seen[m.ID]; ok {
		s.mu.Unlock()
		return false
	}
	s.seen[m.ID] = struct{}{}
	s.messages = append(s.messages, m)
	fn := s.onAppend
	s.mu.Unlock()

	if fn != nil {
		fn(m)
	}
	return true
}

// handleInsert 行通知先排除线程回复，再异步补全发送者身份
func (s *MessageStream) handleInsert(row feed.Row) {
	if util.StrField(row["parent_id"]) != "" {
		return
	}

	m := Message{
		ID:             util.StrField(row["id"]),
		ChannelID:      util.StrToUint64(row["channel_id"]),
		Content:        util.StrField(row["content"]),
		AttachmentURL:  util.StrField(row["attachment_url"]),
		AttachmentMime: util.StrField(row["attachment_mime"]),
		CreatedAt:      util.StrToTime(row["created_at"]),
	}
	senderID := util.StrToUint64(row["sender_id"])

	// 身份查询并发在途，完成顺序只影响入列先后
	go func() {
		m.Sender = s.resolveSender(senderID)

		// 查询期间可能已切换频道，旧频道的消息直接丢弃
		s.mu.Lock()
		stale := s.channelID != m.ChannelID
		s.mu.Unlock()
		if stale {
			return
		}
		s.AddMessage(m)
	}()
}

// resolveSender 查询失败一律按账号注销处理，消息不能因此丢失
func (s *MessageStream) resolveSender(senderID uint64) SenderIdentity {
	if senderID == 0 {
		return DeletedSender
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ident, err := s.lookup.Lookup(ctx, senderID)
	if err != nil || ident == nil {
		return DeletedSender
	}
	return *ident
}

func (s *MessageStream) ChannelID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

func (s *MessageStream) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
