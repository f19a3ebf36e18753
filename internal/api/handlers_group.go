package api

import "Driftline/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler      *handler.UserHandler
	ChannelHandler   *handler.ChannelHandler
	MessageHandler   *handler.MessageHandler
	DashboardHandler *handler.DashboardHandler
	ActivityHandler  *handler.ActivityHandler
	MediaHandler     *handler.MediaHandler
	WsHandler        *handler.WsHandler
}
