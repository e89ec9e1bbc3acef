package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink-ng/campus-api/internal/models"
	"github.com/campuslink-ng/campus-api/internal/service"
	appErrors "github.com/campuslink-ng/campus-api/pkg/errors"
	"github.com/campuslink-ng/campus-api/pkg/response"
)

// ExamHandler exposes the exam workflow endpoints.
type ExamHandler struct {
	service *service.ExamService
}

// NewExamHandler creates a new handler.
func NewExamHandler(svc *service.ExamService) *ExamHandler {
	return &ExamHandler{service: svc}
}

// Create godoc
// @Summary Submit an exam for admin review
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body models.CreateExamRequest true "Exam payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /exams [post]
func (h *ExamHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam payload"))
		return
	}

	exam, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

// UpdateStatus godoc
// @Summary Review an exam
// @Description Admin approves, declines or returns an exam for changes
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Exam ID"
// @Param payload body models.UpdateExamStatusRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exams/{id}/status [patch]
func (h *ExamHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateExamStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	exam, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, exam, nil)
}

// CreateAttempt godoc
// @Summary Start an exam attempt
// @Description Rejected when the exam is not approved or attempts are exhausted
// @Tags Exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /exams/{id}/attempts [post]
func (h *ExamHandler) CreateAttempt(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	attempt, err := h.service.CreateAttempt(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attempt)
}

// ListNotifications godoc
// @Summary List exam notifications for the caller
// @Description Admins also receive admin-audience notifications
// @Tags Exams
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exams/notifications [get]
func (h *ExamHandler) ListNotifications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	notifications, err := h.service.ListNotifications(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}
