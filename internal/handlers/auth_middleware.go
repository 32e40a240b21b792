package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/services"
)

const (
	ctxUserID = "user_id"
	ctxUser   = "user"
)

// AuthMiddleware resolves bearer tokens to local users
type AuthMiddleware struct {
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// OptionalAuth lets requests without credentials through as anonymous.
// A credential that is present but invalid is still rejected.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if am.authenticate(c) {
			c.Next()
		}
	}
}

// RequireAuth rejects requests without a valid bearer token
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUser); ok {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") == "" {
			abortUnauthorized(c, "Authentication credentials were not provided.")
			return
		}
		if am.authenticate(c) {
			c.Next()
		}
	}
}

func (am *AuthMiddleware) authenticate(c *gin.Context) bool {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		abortUnauthorized(c, "Invalid authorization header format.")
		return false
	}

	user, err := am.auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, services.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			return false
		}
		abortUnauthorized(c, "Given token not valid for any token type")
		return false
	}

	c.Set(ctxUserID, user.ID)
	c.Set(ctxUser, user)
	return true
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: message,
		Code:    "not_authenticated",
	})
}

// GetUserFromContext returns the authenticated user set by the middleware
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil, errors.New("invalid user type in context")
	}
	return user, nil
}

// actorFromContext returns the caller as seen by the authorization engine
func actorFromContext(c *gin.Context) authz.Actor {
	user, err := GetUserFromContext(c)
	if err != nil {
		return authz.Anonymous()
	}
	actor, err := authz.ActorFromUser(user)
	if err != nil {
		return authz.Anonymous()
	}
	return actor
}
