package router

import (
	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/internal/http/handler"
	"github.com/endrithotii/daskann/internal/http/middleware"
	"github.com/endrithotii/daskann/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireUser())
	{
		discussionHandler := handler.NewDiscussionHandler(services.Discussions(), services.Analysis())
		DiscussionRouter(v1.Group("/discussions"), discussionHandler)

		notificationHandler := handler.NewNotificationHandler(services.Notifications())
		NotificationRouter(v1.Group("/notifications"), notificationHandler)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
	{
		SweepRouter(internal, handler.NewSweepHandler(services.Sweep()))
	}
}
