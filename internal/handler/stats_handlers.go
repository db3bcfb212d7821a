// Package handler adapts the services to HTTP. Handlers parse and validate
// dimension parameters, delegate, and JSON-encode results; they hold no
// business logic.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sairaghavaa/sol-analytics/internal/model"
	"github.com/sairaghavaa/sol-analytics/internal/service"
)

type StatsHandler struct {
	statsService   *service.StatsService
	displayService *service.DisplayVolumeService
}

func NewStatsHandler(stats *service.StatsService, display *service.DisplayVolumeService) *StatsHandler {
	return &StatsHandler{statsService: stats, displayService: display}
}

// parseStatsQuery reads the shared dimension parameters: protocols (comma
// separated), chain group, scope, optional from/to dates.
func parseStatsQuery(c *gin.Context) (service.StatsQuery, bool) {
	var q service.StatsQuery

	if raw := c.Query("protocols"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				q.Protocols = append(q.Protocols, p)
			}
		}
	} else if p := c.Query("protocol"); p != "" {
		q.Protocols = []string{p}
	}

	if raw := c.Query("chain"); raw != "" {
		group, err := model.ParseChainGroup(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return q, false
		}
		q.Group = group
	}

	if raw := c.Query("scope"); raw != "" {
		scope, err := model.ParseScope(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return q, false
		}
		q.Scope = scope
	}

	for param, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		if raw := c.Query(param); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param + " date, want YYYY-MM-DD"})
				return q, false
			}
			*dst = &t
		}
	}
	return q, true
}

func parseScope(c *gin.Context) (model.DataScope, bool) {
	raw := c.Query("scope")
	if raw == "" {
		return "", true
	}
	scope, err := model.ParseScope(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return scope, true
}

func (h *StatsHandler) GetTotal(c *gin.Context) {
	q, ok := parseStatsQuery(c)
	if !ok {
		return
	}
	total, err := h.statsService.TotalMetrics(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, total)
}

func (h *StatsHandler) GetSeries(c *gin.Context) {
	q, ok := parseStatsQuery(c)
	if !ok {
		return
	}
	series, err := h.statsService.Series(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *StatsHandler) GetDaily(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	snapshot, err := h.statsService.DailySnapshot(c.Request.Context(), date, scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *StatsHandler) getWindow(c *gin.Context, fetch func(time.Time, model.DataScope) (map[string]model.GrowthMetrics, error)) {
	endDate := time.Now().UTC()
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, want YYYY-MM-DD"})
			return
		}
		endDate = t
	}
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	result, err := fetch(endDate, scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *StatsHandler) GetWeekly(c *gin.Context) {
	h.getWindow(c, func(end time.Time, scope model.DataScope) (map[string]model.GrowthMetrics, error) {
		return h.statsService.WeeklyMetrics(c.Request.Context(), end, scope)
	})
}

func (h *StatsHandler) GetMonthly(c *gin.Context) {
	h.getWindow(c, func(end time.Time, scope model.DataScope) (map[string]model.GrowthMetrics, error) {
		return h.statsService.MonthlyMetrics(c.Request.Context(), end, scope)
	})
}

func (h *StatsHandler) GetChainBreakdown(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	shares, err := h.statsService.ChainBreakdown(c.Request.Context(), c.Param("protocol"), scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, shares)
}

func (h *StatsHandler) GetDisplaySeries(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	points, err := h.displayService.DisplaySeries(c.Request.Context(), c.Param("protocol"), scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}
