package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/service"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/response"
)

// AdminHandler exposes the administrator endpoints: user and course
// registration, advisor assignment, global listings and report exports.
type AdminHandler struct {
	gateway *service.ApprovalGateway
	users   *service.UserService
	courses *service.CourseService
	stats   *service.StatsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(gateway *service.ApprovalGateway, users *service.UserService, courses *service.CourseService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{gateway: gateway, users: users, courses: courses, stats: stats}
}

// CreateUser godoc
// @Summary Register a user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param search query string false "Search by name or code"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{
		Role:   models.UserRole(c.Query("role")),
		Search: c.Query("search"),
	}

	users, err := h.users.ListUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}

// AssignAdvisor godoc
// @Summary Assign an advisor to a student
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.AssignAdvisorRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/advisor-assignments [post]
func (h *AdminHandler) AssignAdvisor(c *gin.Context) {
	var req models.AssignAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	if err := h.users.AssignAdvisor(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{"status": "assigned"})
}

// ListCourses godoc
// @Summary List courses with enrollment counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/courses [get]
func (h *AdminHandler) ListCourses(c *gin.Context) {
	courses, err := h.courses.ListWithEnrollmentCounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// ListEnrollments godoc
// @Summary List all enrollments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param final_status query string false "Filter by derived final status"
// @Param search query string false "Search by student or course"
// @Param limit query int false "Row limit"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *AdminHandler) ListEnrollments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	enrollments, err := h.gateway.AdminListEnrollments(c.Request.Context(), actor, adminEnrollmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Stats godoc
// @Summary Aggregate overview for the dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// ExportEnrollments godoc
// @Summary Export the enrollment listing
// @Tags Admin
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string true "csv or pdf"
// @Success 200 {file} binary
// @Router /admin/enrollments/export [get]
func (h *AdminHandler) ExportEnrollments(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	data, contentType, err := h.stats.ExportEnrollments(c.Request.Context(), adminEnrollmentFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("enrollments.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func adminEnrollmentFilter(c *gin.Context) models.AdminEnrollmentFilter {
	filter := models.AdminEnrollmentFilter{
		FinalStatus: models.DecisionStatus(c.Query("final_status")),
		Search:      c.Query("search"),
	}
	if raw := c.Query("limit"); raw != "" {
		var limit int
		if _, err := fmt.Sscanf(raw, "%d", &limit); err == nil {
			filter.Limit = limit
		}
	}
	return filter
}
