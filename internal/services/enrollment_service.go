package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	engine    *authz.Engine
	clock     Clock
}

func NewEnrollmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, engine *authz.Engine, clock Clock) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		engine:    engine,
		clock:     clock,
	}
}

func (s *enrollmentService) List(ctx context.Context, actor authz.Actor, filters EnrollmentListFilters) (*EnrollmentListResponse, error) {
	page := filters.Pagination.normalize()
	scope := s.engine.EnrollmentScope(actor)
	if scope.Empty() {
		return &EnrollmentListResponse{Enrollments: []*models.EnrollmentResponse{}, Page: page.Page, Size: page.Size}, nil
	}

	enrollments, total, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
		CourseID: filters.CourseID,
		UserID:   filters.UserID,
		Scope:    scope,
		Limit:    page.Size,
		Offset:   page.offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	out := make([]*models.EnrollmentResponse, len(enrollments))
	for i, e := range enrollments {
		out[i] = models.NewEnrollmentResponse(e)
	}
	return &EnrollmentListResponse{Enrollments: out, Total: total, Page: page.Page, Size: page.Size}, nil
}

// Create runs the eligibility chain against the referenced course and only
// then touches the ledger.
func (s *enrollmentService) Create(ctx context.Context, actor authz.Actor, req *CreateEnrollmentRequest) (*models.EnrollmentResponse, error) {
	now := s.clock.Now()

	var snapshot *authz.CourseSnapshot
	if req.CourseID != 0 {
		course, err := s.repo.Course().GetByID(ctx, req.CourseID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		snapshot = authz.SnapshotCourse(course)
	}

	decision := s.engine.EnrollmentCreate(actor, snapshot, req.UserID, now)
	if err := DecisionError(actor, "enrollment", "create", req.CourseID, decision); err != nil {
		s.logger.Info("Enrollment denied",
			"actor_id", actor.ID,
			"course_id", req.CourseID,
			"user_id", req.UserID,
			"reason", decision.Reason)
		return nil, err
	}

	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.repo.User().GetByID(ctx, req.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fieldError("user", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.UserID), "exists", req.UserID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsStudent() {
		return nil, fieldError("user", "Only students can be enrolled in a course.", "student_role", req.UserID)
	}

	exists, err := s.repo.Enrollment().Exists(ctx, req.UserID, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}
	if exists {
		return nil, alreadyEnrolled(actor, req.CourseID)
	}

	enrollment := &models.Enrollment{
		UserID:     req.UserID,
		CourseID:   req.CourseID,
		EnrolledAt: now,
	}
	if err := s.repo.Enrollment().Create(ctx, enrollment); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, alreadyEnrolled(actor, req.CourseID)
		}
		s.logger.Error("Failed to create enrollment", "error", err)
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	s.logger.Info("Enrollment created", "enrollment_id", enrollment.ID, "user_id", req.UserID, "course_id", req.CourseID)
	return models.NewEnrollmentResponse(enrollment), nil
}

func (s *enrollmentService) Get(ctx context.Context, actor authz.Actor, id uint) (*models.EnrollmentResponse, error) {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := DecisionError(actor, "enrollment", "read", id, s.engine.EnrollmentRead(actor, snapshotEnrollment(enrollment))); err != nil {
		return nil, err
	}
	return models.NewEnrollmentResponse(enrollment), nil
}

// Delete looks the enrollment up without scoping; ownership is decided by
// the engine policy.
func (s *enrollmentService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return err
	}

	decision := s.engine.EnrollmentDelete(actor, snapshotEnrollment(enrollment), s.clock.Now())
	if err := DecisionError(actor, "enrollment", "delete", id, decision); err != nil {
		s.logger.Info("Unenrollment denied", "actor_id", actor.ID, "enrollment_id", id, "reason", decision.Reason)
		return err
	}

	if err := s.repo.Enrollment().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	s.logger.Info("Enrollment deleted", "enrollment_id", id, "actor_id", actor.ID)
	return nil
}

func (s *enrollmentService) getEnrollment(ctx context.Context, id uint) (*models.Enrollment, error) {
	enrollment, err := s.repo.Enrollment().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

func snapshotEnrollment(e *models.Enrollment) authz.EnrollmentSnapshot {
	snap := authz.EnrollmentSnapshot{ID: e.ID, UserID: e.UserID}
	if c := authz.SnapshotCourse(e.Course); c != nil {
		snap.Course = *c
	}
	return snap
}

func alreadyEnrolled(actor authz.Actor, courseID uint) error {
	return DecisionError(actor, "enrollment", "create", courseID, authz.Deny(authz.ReasonAlreadyEnrolled))
}
