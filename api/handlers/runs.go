package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/OldStager01/fleet-value-engine/pkg/config"
	"github.com/OldStager01/fleet-value-engine/pkg/database/queries"
	"github.com/OldStager01/fleet-value-engine/pkg/models"
	"github.com/OldStager01/fleet-value-engine/pkg/validation"
	"github.com/gin-gonic/gin"
)

// RunManager is the engine surface the API needs: trigger a run and
// subscribe to its events.
type RunManager interface {
	TriggerRun(ctx context.Context, modelName string, windowStart, windowEnd time.Time) (*models.RunReport, error)
	SubscribeAllEvents() <-chan *models.Event
}

type RunHandler struct {
	resultRepo *queries.ResultRepository
	runManager RunManager
	config     *config.Config
}

func NewRunHandler(resultRepo *queries.ResultRepository, runManager RunManager, cfg *config.Config) *RunHandler {
	return &RunHandler{
		resultRepo: resultRepo,
		runManager: runManager,
		config:     cfg,
	}
}

type TriggerRunRequest struct {
	Model       string `json:"model" binding:"required"`
	WindowStart string `json:"window_start,omitempty"`
	WindowEnd   string `json:"window_end,omitempty"`
}

type RunResponse struct {
	ID          string     `json:"id"`
	Model       string     `json:"model"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func toRunResponse(run *models.EngineRun) RunResponse {
	return RunResponse{
		ID:          run.ID,
		Model:       run.ModelName,
		WindowStart: run.WindowStart,
		WindowEnd:   run.WindowEnd,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	}
}

func (h *RunHandler) modelConfigured(name string) bool {
	for _, m := range h.config.Models {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Trigger executes a run synchronously and returns its report summary.
func (h *RunHandler) Trigger(c *gin.Context) {
	var req TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Model = validation.SanitizeString(req.Model)
	if err := validation.ValidateModelName(req.Model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.modelConfigured(req.Model) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown model"})
		return
	}

	windowEnd := time.Now().UTC().Truncate(h.config.Engine.BucketSize)
	windowStart := windowEnd.Add(-h.config.Engine.WindowLength)

	if req.WindowStart != "" {
		parsed, err := time.Parse(time.RFC3339, req.WindowStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_start must be RFC3339"})
			return
		}
		windowStart = parsed
	}
	if req.WindowEnd != "" {
		parsed, err := time.Parse(time.RFC3339, req.WindowEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window_end must be RFC3339"})
			return
		}
		windowEnd = parsed
	}
	if err := validation.ValidateTimeWindow(windowStart, windowEnd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	report, err := h.runManager.TriggerRun(ctx, req.Model, windowStart, windowEnd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "run failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"run":          toRunResponse(&report.Run),
		"episodes":     len(report.Episodes),
		"net_value":    models.NetValue(report.Values),
		"asset_errors": report.AssetErrors,
	})
}

func (h *RunHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	model := c.Query("model")
	limit := parseLimit(c, h.config.API.DefaultLimit, h.config.API.MaxLimit)

	runs, err := h.resultRepo.ListRuns(ctx, model, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch runs"})
		return
	}

	response := make([]RunResponse, len(runs))
	for i := range runs {
		response[i] = toRunResponse(&runs[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  response,
		"count": len(response),
	})
}

func (h *RunHandler) Get(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	run, err := h.resultRepo.GetRun(ctx, id)
	if err != nil {
		if err == queries.ErrRunNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, toRunResponse(run))
}

// Current resolves the model's current-run pointer.
func (h *RunHandler) Current(c *gin.Context) {
	model := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	runID, err := h.resultRepo.CurrentRunID(ctx, model)
	if err != nil {
		if err == queries.ErrRunNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "no current run for model"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve current run"})
		return
	}

	run, err := h.resultRepo.GetRun(ctx, runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run"})
		return
	}

	c.JSON(http.StatusOK, toRunResponse(run))
}

func parseLimit(c *gin.Context, defaultLimit, maxLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	if maxLimit <= 0 {
		maxLimit = 1000
	}

	limit := defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxLimit {
				limit = maxLimit
			}
		}
	}
	return limit
}
