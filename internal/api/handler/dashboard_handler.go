package handler

import (
	"Driftline/internal/pkg/response"
	"Driftline/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// GetSummary 看板全量快照，一次请求拉回全部
func (s *DashboardHandler) GetSummary(c *gin.Context) {
	userID := c.GetUint64("user_id")
	summary, err := s.dashboardSvc.GetSummary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}
