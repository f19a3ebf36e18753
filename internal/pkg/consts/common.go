package consts

// 行变更事件覆盖的表
const (
	TableMessages       = "messages"
	TableChannels       = "channels"
	TableUsers          = "users"
	TableChannelMembers = "channel_members"
)

const (
	// ChannelTypePublic 普通频道
	ChannelTypePublic = 1
	// ChannelTypeDM 一对一私聊
	ChannelTypeDM = 2
)

const (
	DefaultAvatarURL = "default_avatar.png"
)
