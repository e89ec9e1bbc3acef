package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/service"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/response"
)

// ProposalHandler exposes the proposal and order workflow endpoints.
type ProposalHandler struct {
	service *service.ProposalService
}

// NewProposalHandler creates a new handler.
func NewProposalHandler(svc *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{service: svc}
}

// Create godoc
// @Summary Submit a proposal for a gig
// @Tags Marketplace
// @Accept json
// @Produce json
// @Param id path string true "Gig ID"
// @Param payload body models.CreateProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /gigs/{id}/proposals [post]
func (h *ProposalHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}

	proposal, err := h.service.Create(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// ListByGig godoc
// @Summary List proposals for a gig
// @Description Only the gig owner or an admin may list proposals
// @Tags Marketplace
// @Produce json
// @Param id path string true "Gig ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /gigs/{id}/proposals [get]
func (h *ProposalHandler) ListByGig(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	proposals, err := h.service.ListByGig(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// Accept godoc
// @Summary Accept a proposal
// @Description Accept a pending proposal, open the order and fund escrow atomically
// @Tags Marketplace
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/accept [post]
func (h *ProposalHandler) Accept(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.service.Accept(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
