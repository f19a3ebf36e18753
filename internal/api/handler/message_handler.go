package handler

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/pkg/response"
	"Driftline/internal/pkg/util"
	"Driftline/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageSvc service.MessageService
}

func NewMessageHandler(messageSvc service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

func (s *MessageHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	err := c.ShouldBind(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	msgDTO, err := s.messageSvc.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgDTO)
}

// GetChannelMessages 频道内的顶层消息，线程回复不在其中
func (s *MessageHandler) GetChannelMessages(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	userID := c.GetUint64("user_id")
	limit := int(util.StrToUint64(c.Query("limit")))
	msgs, err := s.messageSvc.GetChannelMessages(c.Request.Context(), channelID, userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgs)
}

func (s *MessageHandler) GetThread(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	parentID := c.Param("parentId")
	if parentID == "" {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	userID := c.GetUint64("user_id")
	msgs, err := s.messageSvc.GetThread(c.Request.Context(), channelID, userID, parentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, msgs)
}
