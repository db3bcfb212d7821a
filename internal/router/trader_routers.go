package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/handler"
)

func registerTraderRoutes(router *gin.RouterGroup, traderHandler *handler.TraderHandler) {
	traders := router.Group("/traders")
	{
		traders.GET("/:protocol", traderHandler.GetRanked)
		traders.GET("/:protocol/buckets", traderHandler.GetBuckets)
		traders.GET("/:protocol/percentiles", traderHandler.GetPercentiles)
	}
}
