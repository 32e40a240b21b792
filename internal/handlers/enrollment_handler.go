package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

// ListEnrollments lists the enrollments visible to the caller
// @Summary List enrollments
// @Tags enrollments
// @Produce json
// @Param course query int false "Course ID"
// @Param user query int false "User ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /enrollments/ [get]
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	h.LogRequest(c, "Listing enrollments")

	resp, err := h.enrollmentService.List(c.Request.Context(), actorFromContext(c), services.EnrollmentListFilters{
		CourseID:   h.parseUintQueryPtr(c, "course"),
		UserID:     h.parseUintQueryPtr(c, "user"),
		Pagination: h.parsePagination(c),
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(resp.Enrollments, len(resp.Enrollments), resp.Total, resp.Page, resp.Size))
}

// CreateEnrollment enrolls the calling student in a course
// @Summary Enroll in course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body services.CreateEnrollmentRequest true "Enrollment data"
// @Success 201 {object} models.EnrollmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /enrollments/ [post]
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var req services.CreateEnrollmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating enrollment", "course_id", req.CourseID, "user_id", req.UserID)

	enrollment, err := h.enrollmentService.Create(c.Request.Context(), actorFromContext(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// GetEnrollment retrieves an enrollment inside the caller's scope
// @Summary Get enrollment
// @Tags enrollments
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} models.EnrollmentResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id}/ [get]
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	enrollment, err := h.enrollmentService.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// DeleteEnrollment removes an enrollment before the course starts
// @Summary Leave course
// @Tags enrollments
// @Param id path uint true "Enrollment ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id}/ [delete]
func (h *EnrollmentHandler) DeleteEnrollment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting enrollment", "enrollment_id", id)

	if err := h.enrollmentService.Delete(c.Request.Context(), actorFromContext(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
