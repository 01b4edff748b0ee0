package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/lefty3382/Filson-Sale-Tracker/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		items := v1.Group("/items")
		{
			items.GET("", handler.ListItems)
			items.GET("/discounted", handler.ListDiscounted)
			items.GET("/search", handler.SearchItems)
			items.GET("/history", handler.PriceHistory)
		}
		v1.GET("/stats", handler.Statistics)
	}

	return router
}
