package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/repositories"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Policy authz.Policy

	// Public API root used in activation links
	BaseURL string
}

// Dependencies are the collaborators shared by all services
type Dependencies struct {
	Repo       repositories.Repository
	Logger     *slog.Logger
	Validator  *validator.Validator
	Publisher  events.EventPublisher
	Tokens     *auth.Manager
	Activation *auth.ActivationTokens
	// External is optional
	External ExternalVerifier
	// Clock defaults to the wall clock
	Clock Clock
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig
	engine *authz.Engine

	courseService     CourseService
	enrollmentService EnrollmentService
	userService       UserService
	authService       AuthService
	activationService ActivationService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	return &serviceManager{
		deps:   deps,
		config: config,
		engine: authz.NewEngine(config.Policy),
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.validateDependencies(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	d := sm.deps
	sm.courseService = NewCourseService(d.Repo, d.Logger, d.Validator, sm.engine)
	sm.enrollmentService = NewEnrollmentService(d.Repo, d.Logger, d.Validator, sm.engine, d.Clock)
	sm.userService = NewUserService(d.Repo, d.Logger, d.Validator, sm.engine, d.Publisher, d.Activation, sm.config.BaseURL)
	sm.authService = NewAuthService(d.Repo, d.Logger, d.Validator, d.Tokens, d.External)
	sm.activationService = NewActivationService(d.Repo, d.Logger, d.Activation, d.Publisher)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully",
		"enforce_unenroll_ownership", sm.config.Policy.EnforceUnenrollOwnership,
		"admin_can_update_profiles", sm.config.Policy.AdminCanUpdateProfiles,
		"external_auth", d.External != nil)

	return nil
}

func (sm *serviceManager) validateDependencies() error {
	switch {
	case sm.deps.Repo == nil:
		return fmt.Errorf("repository is required")
	case sm.deps.Logger == nil:
		return fmt.Errorf("logger is required")
	case sm.deps.Validator == nil:
		return fmt.Errorf("validator is required")
	case sm.deps.Publisher == nil:
		return fmt.Errorf("event publisher is required")
	case sm.deps.Tokens == nil || sm.deps.Activation == nil:
		return fmt.Errorf("token issuers are required")
	}
	return nil
}

// Service getters
func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.courseService
}

func (sm *serviceManager) Enrollment() EnrollmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.enrollmentService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.userService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.authService
}

func (sm *serviceManager) Activation() ActivationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.activationService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Publisher.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")
	return nil
}
