package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/service"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/response"
)

// InstructorHandler exposes the instructor review endpoints.
type InstructorHandler struct {
	gateway *service.ApprovalGateway
}

// NewInstructorHandler creates a new handler.
func NewInstructorHandler(gateway *service.ApprovalGateway) *InstructorHandler {
	return &InstructorHandler{gateway: gateway}
}

// Queue godoc
// @Summary List enrollments in own courses
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Filter by course"
// @Param pending query bool false "Only instructor-pending rows"
// @Success 200 {object} response.Envelope
// @Router /instructor/enrollments [get]
func (h *InstructorHandler) Queue(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.InstructorQueueFilter{
		CourseID:    c.Query("course_id"),
		PendingOnly: c.Query("pending") == "true",
	}

	enrollments, err := h.gateway.InstructorQueue(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// CourseEnrollments godoc
// @Summary List one owned course's enrollments
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /instructor/courses/{id}/enrollments [get]
func (h *InstructorHandler) CourseEnrollments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.gateway.CourseEnrollments(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Decide godoc
// @Summary Approve or reject one enrollment
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body models.DecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructor/enrollments/{id}/decision [put]
func (h *InstructorHandler) Decide(c *gin.Context) {
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

	detail, err := h.gateway.DecideAsInstructor(c.Request.Context(), actor, c.Param("id"), req.Decision, req.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// BulkDecide godoc
// @Summary Apply one decision to many enrollments
// @Description Returns the count of rows actually updated; ids outside the instructor's courses are skipped
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BulkDecisionRequest true "Bulk decision payload"
// @Success 200 {object} response.Envelope
// @Router /instructor/enrollments/bulk-decision [post]
func (h *InstructorHandler) BulkDecide(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.BulkDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk decision payload"))
		return
	}

	count, err := h.gateway.BulkDecideAsInstructor(c.Request.Context(), actor, req.EnrollmentIDs, req.Decision)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"updated": count}, nil)
}
