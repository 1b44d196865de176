package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whispers/backend/internal/garden"
	"whispers/backend/internal/middleware"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Gardens        *garden.Registry
	Auth           gin.HandlerFunc
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the gin engine serving the API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(cfg.Logger), gin.Recovery())
	router.GET("/health", HealthCheck(cfg.Gardens))

	gardenHandler := NewGardenHandler(cfg.Gardens, cfg.Logger, cfg.RequestTimeout)

	api := router.Group("/api/v1")
	{
		protected := api.Group("/").Use(cfg.Auth)
		{
			// GARDEN ROUTES
			protected.GET("/garden", gardenHandler.GetGarden)
			protected.GET("/garden/state", gardenHandler.GetGardenState)
			protected.POST("/garden/thoughts", gardenHandler.PlantThought)
			protected.DELETE("/garden/thoughts/:id", gardenHandler.DeleteThought)

			// PROFILE ROUTE
			protected.GET("/profile", Profile)
		}
	}
	return router
}
