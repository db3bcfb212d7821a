package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/handler"
)

func registerSyncRoutes(router *gin.RouterGroup, syncHandler *handler.SyncHandler) {
	sync := router.Group("/sync")
	{
		sync.POST("/:protocol", syncHandler.PostResync)
		sync.POST("/:protocol/traders", syncHandler.PostResyncTraders)
	}
}
