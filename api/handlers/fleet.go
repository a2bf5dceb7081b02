package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/gin-gonic/gin"
)

type FleetHandler struct {
	fleetRepo *queries.FleetRepository
}

func NewFleetHandler(fleetRepo *queries.FleetRepository) *FleetHandler {
	return &FleetHandler{fleetRepo: fleetRepo}
}

func (h *FleetHandler) ListAssets(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	assets, err := h.fleetRepo.ListAssets(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"count":  len(assets),
	})
}

func (h *FleetHandler) GetAsset(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	asset, err := h.fleetRepo.GetAsset(ctx, id)
	if err != nil {
		if err == queries.ErrAssetNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch asset"})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *FleetHandler) Hierarchy(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	hierarchy, err := h.fleetRepo.GetHierarchy(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch hierarchy"})
		return
	}

	c.JSON(http.StatusOK, hierarchy)
}
