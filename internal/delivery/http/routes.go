package http

import (
	"github.com/gin-gonic/gin"

	"github.com/shopsmart/backend/config"
	"github.com/shopsmart/backend/pkg/logging"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *logging.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logging.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/sites", handler.ListSites)
		v1.GET("/export", handler.Export)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.GET("/:id", handler.GetSession)
			sessions.DELETE("/:id", handler.DeleteSession)
			sessions.POST("/:id/open", handler.OpenSearch)
			sessions.POST("/:id/search", handler.StartSearch)
			sessions.POST("/:id/cancel", handler.CancelSearch)
			sessions.PUT("/:id/criteria", handler.UpdateCriteria)
			sessions.GET("/:id/view", handler.GetView)
		}
	}

	return router
}
