package service

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/model"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/mongo"
	"Driftline/internal/repository"
	"context"
)

type DashboardService interface {
	GetSummary(ctx context.Context, userID uint64) (*dto.DashboardSummaryDTO, error)
}

type DashboardServiceImpl struct {
	dashboardRepo repository.DashboardRepo
	channelRepo   repository.ChannelRepo
	userRepo      repository.UserRepo
	messageRepo   mongo.MessageRepo
}

func NewDashboardService(dashboardRepo repository.DashboardRepo, channelRepo repository.ChannelRepo,
	userRepo repository.UserRepo, messageRepo mongo.MessageRepo) DashboardService {
	return &DashboardServiceImpl{
		dashboardRepo: dashboardRepo,
		channelRepo:   channelRepo,
		userRepo:      userRepo,
		messageRepo:   messageRepo,
	}
}

// GetSummary 一次拉回看板需要的全部数据
func (s *DashboardServiceImpl) GetSummary(ctx context.Context, userID uint64) (*dto.DashboardSummaryDTO, error) {
	channelCount, err := s.dashboardRepo.CountUserChannels(ctx, userID, consts.ChannelTypePublic)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	partners, err := s.dashboardRepo.ListDMPartners(ctx, userID)
	if err != nil {
		return nil, err
	}

	channels, err := s.channelRepo.ListUserChannels(ctx, userID, consts.ChannelTypePublic)
	if err != nil {
		return nil, err
	}
	dms, err := s.channelRepo.ListUserChannels(ctx, userID, consts.ChannelTypeDM)
	if err != nil {
		return nil, err
	}

	dmChannelIDs := make([]uint64, 0, len(partners))
	for _, p := range partners {
		dmChannelIDs = append(dmChannelIDs, p.ChannelID)
	}
	dmCounts, err := s.messageRepo.CountByChannels(ctx, dmChannelIDs)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummaryDTO{
		Stats: dto.DashboardStatsDTO{
			ChannelCount:   channelCount,
			DMPartnerCount: int64(len(partners)),
			TotalUserCount: totalUsers,
		},
		Channels:       make([]dto.ChannelSummaryDTO, 0, len(channels)),
		DirectMessages: make([]dto.ChannelSummaryDTO, 0, len(dms)),
		DMStats:        make([]dto.DMStatDTO, 0, len(partners)),
	}

	for _, channel := range channels {
		summary.Channels = append(summary.Channels, channelSummaryDTO(channel))
	}
	for _, channel := range dms {
		summary.DirectMessages = append(summary.DirectMessages, channelSummaryDTO(channel))
	}
	for _, p := range partners {
		summary.DMStats = append(summary.DMStats, dto.DMStatDTO{
			PartnerID:    p.PartnerID,
			PartnerName:  p.PartnerName,
			MessageCount: dmCounts[p.ChannelID],
		})
	}
	return summary, nil
}

func channelSummaryDTO(channel *model.Channel) dto.ChannelSummaryDTO {
	out := dto.ChannelSummaryDTO{ID: channel.ID, Name: channel.Name}
	if channel.LastMessageAt != nil {
		out.LastMessageAt = *channel.LastMessageAt
	}
	return out
}
