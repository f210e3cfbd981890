package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/api/handlers"
	"github.com/pcarvalho/brandwatch/internal/api/middleware"
	"github.com/pcarvalho/brandwatch/internal/config"
	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/queue"
	"github.com/pcarvalho/brandwatch/internal/storage/redis"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
}

func NewServer(cfg *config.Config, repo *db.Repository, cache *redis.Client, triggers *queue.RedisQueue, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	handler := handlers.NewHandler(repo, cache, triggers, logger)

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Tenant())
	{
		api.GET("/schedule", handler.GetSchedule)
		api.PUT("/schedule", handler.UpdateSchedule)
		api.POST("/collect", handler.TriggerCollection)
		api.GET("/jobs", handler.ListJobs)
		api.GET("/jobs/:id", handler.GetJob)
		api.GET("/snapshot", handler.GetSnapshot)
		api.GET("/keywords", handler.GetKeywords)
		api.PUT("/keywords", handler.UpdateKeywords)
	}

	return &Server{
		Config: cfg,
		Router: router,
	}
}
