package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/errs"
	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/service"
)

type SyncHandler struct {
	syncService *service.SyncService
}

func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: sync}
}

func (h *SyncHandler) PostResync(c *gin.Context) {
	protocol := c.Param("protocol")
	entry, ok := model.LookupProtocol(protocol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown protocol"})
		return
	}

	scope := model.DefaultScope(entry.PrimaryChain())
	if raw := c.Query("scope"); raw != "" {
		parsed, err := model.ParseScope(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		scope = parsed
	}

	report, err := h.syncService.ResyncProtocol(c.Request.Context(), protocol, scope)
	if err != nil {
		c.JSON(syncErrorStatus(err), gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *SyncHandler) PostResyncTraders(c *gin.Context) {
	report, err := h.syncService.ResyncTraders(c.Request.Context(), c.Param("protocol"))
	if err != nil {
		c.JSON(syncErrorStatus(err), gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func syncErrorStatus(err error) int {
	var cfgErr *errs.ConfigurationError
	if errors.As(err, &cfgErr) {
		return http.StatusBadRequest
	}
	var feedErr *errs.UpstreamFeedError
	if errors.As(err, &feedErr) {
		return http.StatusBadGateway
	}
	var dataErr *errs.DataIntegrityError
	if errors.As(err, &dataErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
