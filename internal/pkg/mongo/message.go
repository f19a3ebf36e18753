package mongo

import (
	"time"
)

// Message MongoDB 消息明细模型
type Message struct {
	ID        string    `bson:"_id" json:"id"`                           // 写入前由服务端生成的 ObjectID hex
	ChannelID uint64    `bson:"channel_id" json:"channelId"`             // 关联 MySQL 的频道 ID
	SenderID  uint64    `bson:"sender_id" json:"senderId"`               // 发送者 UID，0 表示账号已注销
	Content   string    `bson:"content" json:"content"`                  // 文本内容
	ParentID  string    `bson:"parent_id,omitempty" json:"parentId"`     // 线程回复指向的消息 ID，空串为主消息流
	Payload   *Payload  `bson:"payload,omitempty" json:"payload"`        // 结构化附件
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`             // 消息发送时间
}

// Payload 附件
type Payload struct {
	MimeType  string `bson:"mime_type" json:"mime_type"`
	ObjectKey string `bson:"object_key" json:"object_key"` // MinIO 对象键，读取时换算为公开 URL
	Width     int    `bson:"width,omitempty" json:"width"`
	Height    int    `bson:"height,omitempty" json:"height"`
}
