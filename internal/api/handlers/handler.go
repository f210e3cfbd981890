package handlers

import (
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/queue"
	"github.com/pcarvalho/brandwatch/internal/storage/redis"
)

type Handler struct {
	repo     *db.Repository
	cache    *redis.Client
	triggers *queue.RedisQueue
	logger   *zap.Logger
}

func NewHandler(repo *db.Repository, cache *redis.Client, triggers *queue.RedisQueue, logger *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		triggers: triggers,
		logger:   logger,
	}
}
