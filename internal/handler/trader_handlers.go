package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/service"
)

type TraderHandler struct {
	traderService *service.TraderService
}

func NewTraderHandler(traders *service.TraderService) *TraderHandler {
	return &TraderHandler{traderService: traders}
}

func (h *TraderHandler) GetRanked(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "100"))

	result, err := h.traderService.RankedTraders(c.Request.Context(), c.Param("protocol"), page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TraderHandler) GetBuckets(c *gin.Context) {
	buckets, err := h.traderService.VolumeBuckets(c.Request.Context(), c.Param("protocol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h *TraderHandler) GetPercentiles(c *gin.Context) {
	brackets, err := h.traderService.PercentileBrackets(c.Request.Context(), c.Param("protocol"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, brackets)
}
