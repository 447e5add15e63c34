package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/service"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/response"
)

// AdvisorHandler exposes the advisor review endpoints.
type AdvisorHandler struct {
	gateway *service.ApprovalGateway
}

// NewAdvisorHandler creates a new handler.
func NewAdvisorHandler(gateway *service.ApprovalGateway) *AdvisorHandler {
	return &AdvisorHandler{gateway: gateway}
}

// Queue godoc
// @Summary List instructor-approved enrollments of assigned students
// @Tags Advisor
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by advisor decision status"
// @Param search query string false "Search by student name or code"
// @Success 200 {object} response.Envelope
// @Router /advisor/enrollments [get]
func (h *AdvisorHandler) Queue(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.AdvisorQueueFilter{
		Status: models.DecisionStatus(c.Query("status")),
		Search: c.Query("search"),
	}

	enrollments, err := h.gateway.AdvisorQueue(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Students godoc
// @Summary List assigned students
// @Tags Advisor
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by student name or code"
// @Success 200 {object} response.Envelope
// @Router /advisor/students [get]
func (h *AdvisorHandler) Students(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	students, err := h.gateway.AdvisedStudents(c.Request.Context(), actor, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, nil)
}

// Decide godoc
// @Summary Approve or reject one instructor-approved enrollment
// @Tags Advisor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body models.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /advisor/enrollments/{id}/decision [put]
func (h *AdvisorHandler) Decide(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	detail, err := h.gateway.DecideAsAdvisor(c.Request.Context(), actor, c.Param("id"), req.Decision, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}
