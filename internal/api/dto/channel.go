package dto

import "time"

type CreateChannelDTO struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

type OpenDMDTO struct {
	TargetUserID uint64 `json:"target_user_id" binding:"required"`
}

// ChannelDTO 频道列表项响应
type ChannelDTO struct {
	ID            uint64     `json:"id"`
	Type          int        `json:"type"` // 1-公共频道, 2-私聊
	Name          string     `json:"name"`
	LastMsgCont   string     `json:"last_msg_cont,omitempty"`
	LastSenderID  uint64     `json:"last_sender_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
