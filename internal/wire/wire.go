package wire

import (
	"Driftline/internal/api"
	"Driftline/internal/api/config"
	"Driftline/internal/api/handler"
	"Driftline/internal/job"
	"Driftline/internal/pkg/cron"
	"Driftline/internal/pkg/kafka"
	pkgmongo "Driftline/internal/pkg/mongo"
	"Driftline/internal/realtime/feed"
	"Driftline/internal/repository"
	"Driftline/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	FeedConsumer *feed.Consumer
	Producer     *kafka.Producer
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	channelRepo := repository.NewChannelRepo(db)
	dashboardRepo := repository.NewDashboardRepo(db)
	messageRepo := pkgmongo.NewMessageRepo(mongoDB)

	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	userService := service.NewUserService(userRepo, producer)
	channelService := service.NewChannelService(channelRepo, userRepo, producer)
	messageService := service.NewMessageService(messageRepo, channelRepo, userRepo, producer)
	dashboardService := service.NewDashboardService(dashboardRepo, channelRepo, userRepo, messageRepo)
	activityService := service.NewActivityService(userRepo)

	// 行变更总线：kafka 消费进来，会话里的组件按表订阅
	bus := feed.NewBus()
	consumer, err := feed.NewConsumer(cfg, bus)
	if err != nil {
		return nil, err
	}

	handlers := &api.HandlersGroup{
		UserHandler:      handler.NewUserHandler(userService),
		ChannelHandler:   handler.NewChannelHandler(channelService),
		MessageHandler:   handler.NewMessageHandler(messageService),
		DashboardHandler: handler.NewDashboardHandler(dashboardService),
		ActivityHandler:  handler.NewActivityHandler(activityService),
		MediaHandler:     handler.NewMediaHandler(),
		WsHandler:        handler.NewWsHandler(bus, messageService, channelService),
	}

	router := api.SetupRouter(handlers)

	cronMgr := cron.NewCronManager(
		job.NewPresenceSweepJob(),
		job.NewActivityFlushJob(activityService),
	)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		FeedConsumer: consumer,
		Producer:     producer,
		CronMgr:      cronMgr,
	}, nil
}
