package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
	"github.com/gin-gonic/gin"
)

type ResultHandler struct {
	resultRepo *queries.ResultRepository
	eventRepo  *queries.EventRepository
}

func NewResultHandler(resultRepo *queries.ResultRepository, eventRepo *queries.EventRepository) *ResultHandler {
	return &ResultHandler{
		resultRepo: resultRepo,
		eventRepo:  eventRepo,
	}
}

func (h *ResultHandler) Episodes(c *gin.Context) {
	runID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	episodes, err := h.resultRepo.Episodes(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch episodes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"data":   episodes,
		"count":  len(episodes),
	})
}

func (h *ResultHandler) Rollups(c *gin.Context) {
	runID := c.Param("id")
	level := models.ScopeLevel(c.Query("level"))

	switch level {
	case "", models.ScopeAsset, models.ScopeSite, models.ScopePortfolio:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "level must be one of: asset, site, portfolio"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	rollups, err := h.resultRepo.Rollups(ctx, runID, level)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rollups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"level":  level,
		"data":   rollups,
		"count":  len(rollups),
	})
}

func (h *ResultHandler) Values(c *gin.Context) {
	runID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	values, err := h.resultRepo.Values(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch attributed values"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":    runID,
		"data":      values,
		"net_value": models.NetValue(values),
		"count":     len(values),
	})
}

func (h *ResultHandler) Curve(c *gin.Context) {
	runID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	curve, err := h.resultRepo.Curve(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch profit curve"})
		return
	}
	if curve == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profit curve for run"})
		return
	}

	c.JSON(http.StatusOK, curve)
}

func (h *ResultHandler) RecentEvents(c *gin.Context) {
	limit := parseLimit(c, 20, 200)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	events, err := h.eventRepo.Recent(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recent events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  events,
		"count": len(events),
	})
}
