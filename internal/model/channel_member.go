package model

import (
	"time"
)

type ChannelMember struct {
	ID        uint64 `gorm:"primaryKey"`
	ChannelID uint64 `gorm:"uniqueIndex:idx_channel_user"`
	UserID    uint64 `gorm:"uniqueIndex:idx_channel_user"`
	CreatedAt time.Time
}

func (ChannelMember) TableName() string {
	return "channel_members"
}
