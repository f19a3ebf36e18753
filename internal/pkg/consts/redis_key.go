package consts

const (
	// PresenceHashKey + 频道名 = 心跳记录哈希
	PresenceHashKey = "presence:channel:"
	// PresenceEventsKey + 频道名 = 成员变动通知频道
	PresenceEventsKey = "presence:events:"
	// IMUserKey + 用户ID = 用户个人推送频道
	IMUserKey = "im:user:"
	// LastActiveKey + 用户ID = 最近活跃时间戳
	LastActiveKey = "activity:last:"
	// LastActiveDirtyKey 待落库的活跃用户集合
	LastActiveDirtyKey = "activity:dirty"
)
