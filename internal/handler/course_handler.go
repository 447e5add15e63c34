package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/service"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/response"
)

// CourseHandler exposes the course catalogue. Reads are open to any
// authenticated user; creation is routed to instructors, who own the
// courses they create.
type CourseHandler struct {
	courses *service.CourseService
	stats   *service.StatsService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(courses *service.CourseService, stats *service.StatsService) *CourseHandler {
	return &CourseHandler{courses: courses, stats: stats}
}

// List godoc
// @Summary Browse the course catalogue
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param department query string false "Filter by department"
// @Param code query string false "Filter by partial course code"
// @Param title query string false "Filter by partial title"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Department: c.Query("department"),
		Code:       c.Query("code"),
		Title:      c.Query("title"),
	}

	courses, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// Departments godoc
// @Summary List distinct departments
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /courses/departments [get]
func (h *CourseHandler) Departments(c *gin.Context) {
	departments, err := h.courses.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, departments, nil)
}

// Create godoc
// @Summary Add a course owned by the caller
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}

	course, err := h.courses.Create(c.Request.Context(), req, actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.stats.InvalidateOverview(c.Request.Context())
	response.Created(c, course)
}
