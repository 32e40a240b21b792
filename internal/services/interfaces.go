package services

import (
	"context"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type RegisterUserRequest = validator.RegisterUserRequest
type UpdateUserRequest = validator.UpdateUserRequest
type CreateCourseRequest = validator.CreateCourseRequest
type UpdateCourseRequest = validator.UpdateCourseRequest
type CreateEnrollmentRequest = validator.CreateEnrollmentRequest
type TokenRequest = validator.TokenRequest
type RefreshRequest = validator.RefreshRequest

// Pagination is shared by every listing; Page is 1-based
type Pagination struct {
	Page int
	Size int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Pagination) normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}

func (p Pagination) offset() int {
	return (p.Page - 1) * p.Size
}

type CourseListFilters struct {
	Name        string
	TeacherName string
	SortBy      string
	SortOrder   string
	Pagination
}

type CourseListResponse struct {
	Courses []*models.CourseResponse
	Total   int64
	Page    int
	Size    int
}

type EnrollmentListFilters struct {
	CourseID *uint
	UserID   *uint
	Pagination
}

type EnrollmentListResponse struct {
	Enrollments []*models.EnrollmentResponse
	Total       int64
	Page        int
	Size        int
}

type UserListFilters struct {
	Query string
	Role  string
	Pagination
}

type UserListResponse struct {
	Users []*models.UserResponse
	Total int64
	Page  int
	Size  int
}

// RosterFile is an exported spreadsheet
type RosterFile struct {
	Filename string
	Content  []byte
}

// ===== SERVICES =====

type CourseService interface {
	List(ctx context.Context, actor authz.Actor, filters CourseListFilters) (*CourseListResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *CreateCourseRequest) (*models.CourseResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (*models.CourseResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req *UpdateCourseRequest) (*models.CourseResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
	ExportRoster(ctx context.Context, actor authz.Actor, id uint) (*RosterFile, error)
}

type EnrollmentService interface {
	List(ctx context.Context, actor authz.Actor, filters EnrollmentListFilters) (*EnrollmentListResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *CreateEnrollmentRequest) (*models.EnrollmentResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (*models.EnrollmentResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint) error
}

type UserService interface {
	Register(ctx context.Context, req *RegisterUserRequest) (*models.UserResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req *UpdateUserRequest) (*models.UserResponse, error)
	List(ctx context.Context, actor authz.Actor, filters UserListFilters) (*UserListResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (*models.UserResponse, error)
}

type AuthService interface {
	Login(ctx context.Context, req *TokenRequest) (*models.TokenPair, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*models.TokenPair, error)
	// Authenticate resolves a bearer token to an active user
	Authenticate(ctx context.Context, bearer string) (*models.User, error)
}

type ActivationService interface {
	// Activate confirms an activation link
	Activate(ctx context.Context, uid, token string) error
	// ActivateByIdentifier activates by username, then by email
	ActivateByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// ServiceManager manages all services and their lifecycle
type ServiceManager interface {
	Course() CourseService
	Enrollment() EnrollmentService
	User() UserService
	Auth() AuthService
	Activation() ActivationService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
