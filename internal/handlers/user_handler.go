package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService       services.UserService
	activationService services.ActivationService
}

func NewUserHandler(userService services.UserService, activationService services.ActivationService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:       NewBaseHandler(logger),
		userService:       userService,
		activationService: activationService,
	}
}

// Register creates an inactive account
// @Summary Register
// @Description Creates an inactive account; an admin receives the activation link
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.RegisterUserRequest true "Account data"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/ [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registering user", "username", req.Username)

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users inside the caller's scope
// @Summary List users
// @Tags users
// @Produce json
// @Param q query string false "Username or email contains"
// @Param role query string false "Filter by role (student, teacher, admin)"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /users/ [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	resp, err := h.userService.List(c.Request.Context(), actorFromContext(c), services.UserListFilters{
		Query:      c.Query("q"),
		Role:       c.Query("role"),
		Pagination: h.parsePagination(c),
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(resp.Users, len(resp.Users), resp.Total, resp.Page, resp.Size))
}

// GetUser retrieves a user inside the caller's scope
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/ [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser partially updates the caller's own profile
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path uint true "User ID"
// @Param user body services.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/{id}/ [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user", "user_id", id)

	user, err := h.userService.Update(c.Request.Context(), actorFromContext(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Activate confirms an activation link
// @Summary Activate account
// @Tags users
// @Produce json
// @Param uid path string true "User ID"
// @Param token path string true "Activation token"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /activate/{uid}/{token}/ [get]
func (h *UserHandler) Activate(c *gin.Context) {
	h.LogRequest(c, "Activating account", "uid", c.Param("uid"))

	if err := h.activationService.Activate(c.Request.Context(), c.Param("uid"), c.Param("token")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "An account has been activated successfully."})
}
