package api

import (
	"Driftline/internal/api/middleware"
	"Driftline/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/register", group.UserHandler.Register)

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/info", group.UserHandler.GetMyInfo)
				authGroup.GET("/:id/identity", group.UserHandler.GetIdentity)
				authGroup.POST("/cancel", group.UserHandler.CancelUser)
			}
		}

		channelGroup := apiGroup.Group("/channel")
		channelGroup.Use(middleware.AuthMiddleware())
		{
			channelGroup.POST("", group.ChannelHandler.CreateChannel)
			channelGroup.GET("/list", group.ChannelHandler.ListChannels)
			channelGroup.POST("/:id/join", group.ChannelHandler.JoinChannel)
			channelGroup.POST("/dm", group.ChannelHandler.OpenDM)
			channelGroup.GET("/:id/messages", group.MessageHandler.GetChannelMessages)
			channelGroup.GET("/:id/thread/:parentId", group.MessageHandler.GetThread)
		}

		messageGroup := apiGroup.Group("/message")
		messageGroup.Use(middleware.AuthMiddleware())
		{
			messageGroup.POST("", group.MessageHandler.SendMessage)
		}

		mediaGroup := apiGroup.Group("/media")
		mediaGroup.Use(middleware.AuthMiddleware())
		{
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}

		dashboardGroup := apiGroup.Group("/dashboard")
		dashboardGroup.Use(middleware.AuthMiddleware())
		{
			dashboardGroup.GET("/summary", group.DashboardHandler.GetSummary)
		}

		activityGroup := apiGroup.Group("/activity")
		activityGroup.Use(middleware.AuthMiddleware())
		{
			activityGroup.POST("/beacon", group.ActivityHandler.Beacon)
		}

		wsGroup := apiGroup.Group("/ws")
		wsGroup.Use(middleware.AuthMiddleware())
		{
			wsGroup.GET("/connect", group.WsHandler.Connect)
		}
	}

	return r
}
