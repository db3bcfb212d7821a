package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/handler"
)

type Config struct {
	StatsHandler  *handler.StatsHandler
	TraderHandler *handler.TraderHandler
	SyncHandler   *handler.SyncHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1/")
	registerStatsRoutes(api, cfg.StatsHandler)
	registerTraderRoutes(api, cfg.TraderHandler)
	registerSyncRoutes(api, cfg.SyncHandler)

	return router
}
