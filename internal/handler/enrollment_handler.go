package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/service"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/response"
)

// EnrollmentHandler exposes the student-facing enrollment endpoints.
type EnrollmentHandler struct {
	gateway *service.ApprovalGateway
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(gateway *service.ApprovalGateway) *EnrollmentHandler {
	return &EnrollmentHandler{gateway: gateway}
}

// Create godoc
// @Summary Request enrollment in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	detail, err := h.gateway.Enroll(c.Request.Context(), actor, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// List godoc
// @Summary List own enrollments with derived final status
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.gateway.ListOwn(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Drop godoc
// @Summary Drop an enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/enrollments/{id} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.gateway.Drop(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
