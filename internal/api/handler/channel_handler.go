package handler

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/pkg/response"
	"Driftline/internal/pkg/util"
	"Driftline/internal/service"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channelSvc service.ChannelService
}

func NewChannelHandler(channelSvc service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelSvc: channelSvc}
}

func (s *ChannelHandler) CreateChannel(c *gin.Context) {
	var createDTO dto.CreateChannelDTO
	err := c.ShouldBind(&createDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	channelDTO, err := s.channelSvc.CreateChannel(c.Request.Context(), userID, &createDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, channelDTO)
}

func (s *ChannelHandler) JoinChannel(c *gin.Context) {
	channelID, err := parseIDParam(c, "id")
	if err != nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	userID := c.GetUint64("user_id")
	err = s.channelSvc.JoinChannel(c.Request.Context(), channelID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ChannelHandler) OpenDM(c *gin.Context) {
	var openDTO dto.OpenDMDTO
	err := c.ShouldBind(&openDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := c.GetUint64("user_id")
	channelDTO, err := s.channelSvc.OpenDM(c.Request.Context(), userID, openDTO.TargetUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, channelDTO)
}

// ListChannels ?type=1 只看公共频道，?type=2 只看私聊，缺省不过滤
func (s *ChannelHandler) ListChannels(c *gin.Context) {
	userID := c.GetUint64("user_id")
	channelType := int(util.StrToUint64(c.Query("type")))
	channels, err := s.channelSvc.ListChannels(c.Request.Context(), userID, channelType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, channels)
}
