package router

import (
	"github.com/gin-gonic/gin"

	"answerhub.dev/scribe/internal/http/handler"
	"answerhub.dev/scribe/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	eventHandler := handler.NewEventHandler(services.Conversation(), services.Responses())
	router.POST("/webhooks/events", eventHandler.Ingest)

	v1 := router.Group("/api/v1")
	{
		trackingHandler := handler.NewTrackingHandler(services.Intake())
		v1.POST("/escalations", trackingHandler.OpenEscalation)
		v1.POST("/answers", trackingHandler.TrackAnswer)
	}
}
