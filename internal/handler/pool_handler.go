package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/service"
	"github.com/campuslink-ng/campus-api/pkg/config"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/response"
)

// PoolHandler exposes identifier pool administration for one pool type. The
// registration-number and staff-id route groups each get their own instance.
type PoolHandler struct {
	service  *service.PoolService
	poolType models.PoolType
	cfg      config.PoolConfig
}

// NewPoolHandler creates a handler bound to a pool type.
func NewPoolHandler(svc *service.PoolService, poolType models.PoolType, cfg config.PoolConfig) *PoolHandler {
	return &PoolHandler{service: svc, poolType: poolType, cfg: cfg}
}

// ListAvailable godoc
// @Summary List available identifiers
// @Tags Identifier Pools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registration-numbers/available [get]
func (h *PoolHandler) ListAvailable(c *gin.Context) {
	entries, err := h.service.ListAvailable(c.Request.Context(), h.poolType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"available": entries, "count": len(entries)}, nil)
}

// Initialize godoc
// @Summary Seed the identifier pool
// @Description No-op reporting the existing count when the pool is already seeded
// @Tags Identifier Pools
// @Accept json
// @Produce json
// @Param payload body models.InitializePoolRequest true "Seed payload"
// @Success 200 {object} response.Envelope
// @Router /registration-numbers/initialize [post]
func (h *PoolHandler) Initialize(c *gin.Context) {
	var req models.InitializePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pool payload"))
		return
	}

	result, err := h.service.Initialize(c.Request.Context(), h.poolType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MarkUsed godoc
// @Summary Claim an identifier
// @Description Reports claimed=false when the value is missing or already used
// @Tags Identifier Pools
// @Accept json
// @Produce json
// @Param payload body models.MarkUsedRequest true "Claim payload"
// @Success 200 {object} response.Envelope
// @Router /registration-numbers/mark-used [post]
func (h *PoolHandler) MarkUsed(c *gin.Context) {
	var req models.MarkUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid claim payload"))
		return
	}

	claimed, err := h.service.MarkUsed(c.Request.Context(), h.poolType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"claimed": claimed, "value": req.Value}, nil)
}

// AutoGenerate godoc
// @Summary Replenish the identifier pool
// @Description Skipped when the available count is at or above the threshold
// @Tags Identifier Pools
// @Accept json
// @Produce json
// @Param payload body object true "Replenishment payload"
// @Success 200 {object} response.Envelope
// @Router /registration-numbers/auto-generate [post]
func (h *PoolHandler) AutoGenerate(c *gin.Context) {
	var req struct {
		Prefix    string `json:"prefix" binding:"required"`
		Strategy  string `json:"strategy"`
		Threshold *int   `json:"threshold"`
		BatchSize *int   `json:"batch_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid replenishment payload"))
		return
	}

	threshold := h.cfg.LowWatermark
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	batchSize := h.cfg.BatchSize
	if req.BatchSize != nil {
		batchSize = *req.BatchSize
	}

	strategy, err := h.service.StrategyFor(c.Request.Context(), h.poolType, req.Strategy, req.Prefix, h.cfg.MaxRandomAttempts)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.AutoGenerate(c.Request.Context(), h.poolType, threshold, batchSize, strategy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Reset godoc
// @Summary Wipe and reseed the identifier pool
// @Tags Identifier Pools
// @Accept json
// @Produce json
// @Param payload body models.InitializePoolRequest true "Seed payload"
// @Success 200 {object} response.Envelope
// @Router /registration-numbers/reset [post]
func (h *PoolHandler) Reset(c *gin.Context) {
	var req models.InitializePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid pool payload"))
		return
	}

	result, err := h.service.Reset(c.Request.Context(), h.poolType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
