package dto

import "time"

type DashboardStatsDTO struct {
	ChannelCount   int64 `json:"channel_count"`
	DMPartnerCount int64 `json:"dm_partner_count"`
	TotalUserCount int64 `json:"total_user_count"`
}

type ChannelSummaryDTO struct {
	ID            uint64    `json:"id"`
	Name          string    `json:"name"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type DMStatDTO struct {
	PartnerID    uint64 `json:"partner_id"`
	PartnerName  string `json:"partner_name"`
	MessageCount int64  `json:"message_count"`
}

// DashboardSummaryDTO 看板全量快照
type DashboardSummaryDTO struct {
	Stats          DashboardStatsDTO   `json:"stats"`
	Channels       []ChannelSummaryDTO `json:"channels"`
	DirectMessages []ChannelSummaryDTO `json:"direct_messages"`
	DMStats        []DMStatDTO         `json:"dm_stats"`
}

// BeaconDTO 活跃上报请求体，user_id 仅作冗余校验
type BeaconDTO struct {
	UserID uint64 `json:"user_id"`
}
