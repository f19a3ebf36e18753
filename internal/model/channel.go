package model

import (
	"time"
)

type Channel struct {
	ID   uint64 `gorm:"primaryKey"`
	Type int    `gorm:"type:tinyint(1);default:1"`
	Name string `gorm:"type:varchar(100)"`
	// PeerKey 私聊去重键，"小ID_大ID"，公共频道为 NULL
	PeerKey       *string `gorm:"type:varchar(64);uniqueIndex:idx_peer_key"`
	CreatorID     uint64
	LastMsgCont   *string `gorm:"type:varchar(255)"`
	LastSenderID  *uint64
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Members []ChannelMember `gorm:"foreignKey:ChannelID;references:ID"`
}

func (Channel) TableName() string {
	return "channels"
}
