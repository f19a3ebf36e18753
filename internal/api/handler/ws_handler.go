package handler

import (
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"Driftline/internal/realtime/feed"
	"Driftline/internal/service"
	"Driftline/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	bus        feed.Source
	messageSvc service.MessageService
	channelSvc service.ChannelService
}

func NewWsHandler(bus feed.Source, messageSvc service.MessageService, channelSvc service.ChannelService) *WsHandler {
	return &WsHandler{
		bus:        bus,
		messageSvc: messageSvc,
		channelSvc: channelSvc,
	}
}

// Connect 升级 websocket 并托管一个同步会话，阻塞到连接断开
func (s *WsHandler) Connect(c *gin.Context) {
	userID := c.GetUint64("user_id")
	token := c.GetString("token")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "user_id", userID, "err", err)
		return
	}

	sess := session.New(userID, token, conn, s.bus, s.messageSvc, s.channelSvc)
	sess.Run(c.Request.Context())
}
