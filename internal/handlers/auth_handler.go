package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// ObtainToken exchanges credentials for an access/refresh pair
// @Summary Obtain token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.TokenRequest true "Username and password"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /token/ [post]
func (h *AuthHandler) ObtainToken(c *gin.Context) {
	var req services.TokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Issuing token", "username", req.Username)

	pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// RefreshToken issues a new access token
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body services.RefreshRequest true "Refresh token"
// @Success 200 {object} models.TokenPair
// @Failure 401 {object} ErrorResponse
// @Router /token/refresh/ [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}
