package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/handler"
)

func registerStatsRoutes(router *gin.RouterGroup, statsHandler *handler.StatsHandler) {
	stats := router.Group("/stats")
	{
		stats.GET("/total", statsHandler.GetTotal)
		stats.GET("/series", statsHandler.GetSeries)
		stats.GET("/daily", statsHandler.GetDaily)
		stats.GET("/weekly", statsHandler.GetWeekly)
		stats.GET("/monthly", statsHandler.GetMonthly)
		stats.GET("/chains/:protocol", statsHandler.GetChainBreakdown)
		stats.GET("/display/:protocol", statsHandler.GetDisplaySeries)
	}
}
