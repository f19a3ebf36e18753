package handler

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/pkg/response"
	"Driftline/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activitySvc service.ActivityService
}

func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// Beacon 活跃上报，身份以令牌为准，请求体里的 user_id 只作冗余
// 上报是尽力而为的，这里永远返回成功
func (s *ActivityHandler) Beacon(c *gin.Context) {
	var req dto.BeaconDTO
	_ = c.ShouldBind(&req)

	userID := c.GetUint64("user_id")
	_ = s.activitySvc.MarkActive(c.Request.Context(), userID)
	response.Success(c, nil)
}
