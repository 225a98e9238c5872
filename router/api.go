package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/voiceline/voiceline-api/handlers"
	"github.com/voiceline/voiceline-api/internal/config"
	"github.com/voiceline/voiceline-api/services"
)

func NewGinRouter(pg *sql.DB, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Webhook-Secret")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	defaultAgent := services.NewDefaultAgent(config.App.DefaultAgent)
	events := services.NewRoutingEventPublisher(redisClient)
	routingService := services.NewRoutingService(pg, defaultAgent)
	callLogService := services.NewCallLogService(pg)
	agentService := services.NewAgentService(pg)

	// Initialize handlers
	callHandler := handlers.NewCallHandler(routingService, callLogService, events)
	agentHandler := handlers.NewAgentHandler(agentService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Telephony webhooks (shared-secret guarded, no bearer token)
	webhook := r.Group("/webhook", handlers.WebhookAuthMiddleware())
	{
		webhook.POST("/voice/incoming", callHandler.HandleIncomingCall)
		webhook.POST("/voice/status", callHandler.HandleCallStatus)
	}

	// Admin API
	api := r.Group("/api", handlers.AuthMiddleware())
	{
		api.GET("/agents", agentHandler.ListAgents)
		api.POST("/agents", agentHandler.CreateAgent)
		api.GET("/agents/:id", agentHandler.GetAgent)
		api.PUT("/agents/:id", agentHandler.UpdateAgent)
		api.DELETE("/agents/:id", agentHandler.DeactivateAgent)
		api.GET("/agents/:id/capacity", callHandler.GetAgentCapacity)

		api.GET("/phone-numbers", agentHandler.ListPhoneNumbers)
		api.POST("/phone-numbers", agentHandler.AssignPhoneNumber)
		api.DELETE("/phone-numbers/:number", agentHandler.UnassignPhoneNumber)

		api.POST("/calls/outbound", callHandler.HandleOutboundCall)
		api.GET("/calls/:sid", callHandler.GetCall)
		api.GET("/routing/stats", callHandler.GetRoutingStats)
	}

	return r
}
