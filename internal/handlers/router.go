package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/internal/utils"
)

type HandlerManager struct {
	courseHandler     *CourseHandler
	enrollmentHandler *EnrollmentHandler
	userHandler       *UserHandler
	authHandler       *AuthHandler
	authMiddleware    *AuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		courseHandler:     NewCourseHandler(serviceManager.Course(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), serviceManager.Activation(), logger),
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		authMiddleware:    NewAuthMiddleware(serviceManager.Auth()),
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(hm.authMiddleware.OptionalAuth())
	{
		// Token endpoints
		api.POST("/token/", hm.authHandler.ObtainToken)
		api.POST("/token/refresh/", hm.authHandler.RefreshToken)

		// Account activation link sent to the admin
		api.GET("/activate/:uid/:token/", hm.userHandler.Activate)

		// Registration is anonymous; listing is scoped, empty for anonymous callers
		users := api.Group("/users")
		{
			users.POST("/", hm.userHandler.Register)
			users.GET("/", hm.userHandler.ListUsers)
			users.GET("/:id/", hm.authMiddleware.RequireAuth(), hm.userHandler.GetUser)
			users.PATCH("/:id/", hm.authMiddleware.RequireAuth(), hm.userHandler.UpdateUser)
		}

		courses := api.Group("/courses")
		courses.Use(hm.authMiddleware.RequireAuth())
		{
			courses.GET("/", hm.courseHandler.ListCourses)
			courses.POST("/", hm.courseHandler.CreateCourse)
			courses.GET("/:id/", hm.courseHandler.GetCourse)
			courses.PATCH("/:id/", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id/", hm.courseHandler.DeleteCourse)
			courses.GET("/:id/roster/", hm.courseHandler.ExportRoster)
		}

		enrollments := api.Group("/enrollments")
		enrollments.Use(hm.authMiddleware.RequireAuth())
		{
			enrollments.GET("/", hm.enrollmentHandler.ListEnrollments)
			enrollments.POST("/", hm.enrollmentHandler.CreateEnrollment)
			enrollments.GET("/:id/", hm.enrollmentHandler.GetEnrollment)
			enrollments.DELETE("/:id/", hm.enrollmentHandler.DeleteEnrollment)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "school-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "school-service",
	})
}
