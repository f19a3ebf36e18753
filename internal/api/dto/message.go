package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	ChannelID uint64 `json:"channel_id" binding:"required"`
	Content   string `json:"content" binding:"required,max=4000"`
	ParentID  string `json:"parent_id"` // 非空时为线程回复
	ObjectKey string `json:"object_key"`
	MimeType  string `json:"mime_type"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string      `json:"id"`
	ChannelID      uint64      `json:"channel_id"`
	Sender         IdentityDTO `json:"sender"`
	Content        string      `json:"content"`
	ParentID       string      `json:"parent_id,omitempty"`
	AttachmentURL  string      `json:"attachment_url,omitempty"`
	AttachmentMime string      `json:"attachment_mime,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
