package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuslink-ng/campus-api/internal/middleware"
	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/service"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/response"
)

// GigHandler exposes the marketplace catalog endpoints.
type GigHandler struct {
	service *service.GigService
}

// NewGigHandler creates a new handler.
func NewGigHandler(svc *service.GigService) *GigHandler {
	return &GigHandler{service: svc}
}

// List godoc
// @Summary List gigs
// @Description List gigs with optional filters and pagination
// @Tags Marketplace
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "Status"
// @Param owner_id query string false "Owner ID, or me for the caller's own gigs"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param search query string false "Free-text search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /gigs [get]
func (h *GigHandler) List(c *gin.Context) {
	filter, err := parseGigFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	gigs, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, gigs, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get a gig
// @Tags Marketplace
// @Produce json
// @Param id path string true "Gig ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /gigs/{id} [get]
func (h *GigHandler) Get(c *gin.Context) {
	gig, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gig, nil)
}

// Create godoc
// @Summary Create a gig
// @Tags Marketplace
// @Accept json
// @Produce json
// @Param payload body models.CreateGigRequest true "Gig payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /gigs [post]
func (h *GigHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateGigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gig payload"))
		return
	}

	gig, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gig)
}

// Update godoc
// @Summary Update a gig
// @Description Partial update; only the gig owner or an admin may modify it
// @Tags Marketplace
// @Accept json
// @Produce json
// @Param id path string true "Gig ID"
// @Param payload body models.UpdateGigRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /gigs/{id} [patch]
func (h *GigHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch models.UpdateGigRequest
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid gig payload"))
		return
	}

	gig, err := h.service.Update(c.Request.Context(), c.Param("id"), claims, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gig, nil)
}

func parseGigFilter(c *gin.Context) (models.GigFilter, error) {
	filter := models.GigFilter{
		Category: c.Query("category"),
		OwnerID:  c.Query("owner_id"),
		Search:   c.Query("search"),
	}

	// "me" resolves to the caller; listing is public, so claims are optional.
	if filter.OwnerID == "me" {
		claims := claimsFromContext(c)
		if claims == nil {
			return filter, appErrors.Clone(appErrors.ErrUnauthorized, "owner_id=me requires authentication")
		}
		filter.OwnerID = claims.UserID
	}

	if raw := c.Query("status"); raw != "" {
		status := models.GigStatus(raw)
		if !status.Valid() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
		}
		filter.Status = &status
	}
	if raw := c.Query("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "min_price must be numeric")
		}
		filter.MinPrice = &v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "max_price must be numeric")
		}
		filter.MaxPrice = &v
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return filter, nil
}
