package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	engine    *authz.Engine
}

func NewCourseService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, engine *authz.Engine) CourseService {
	return &courseService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		engine:    engine,
	}
}

// List returns the courses visible to actor. Name and teacher filters are
// applied before the role scope.
func (s *courseService) List(ctx context.Context, actor authz.Actor, filters CourseListFilters) (*CourseListResponse, error) {
	page := filters.Pagination.normalize()
	scope := s.engine.CourseScope(actor)
	if scope.Empty() {
		return &CourseListResponse{Courses: []*models.CourseResponse{}, Page: page.Page, Size: page.Size}, nil
	}

	courses, total, err := s.repo.Course().List(ctx, repositories.CourseFilters{
		Name:        filters.Name,
		TeacherName: filters.TeacherName,
		Scope:       scope,
		SortBy:      filters.SortBy,
		SortOrder:   filters.SortOrder,
		Limit:       page.Size,
		Offset:      page.offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	out := make([]*models.CourseResponse, len(courses))
	for i, c := range courses {
		out[i] = models.NewCourseResponse(c)
	}

	return &CourseListResponse{Courses: out, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *courseService) Create(ctx context.Context, actor authz.Actor, req *CreateCourseRequest) (*models.CourseResponse, error) {
	s.logger.Info("Creating course", "name", req.Name, "actor_id", actor.ID)

	// Authorization precedes validation
	if err := DecisionError(actor, "course", "create", 0, s.engine.CourseCreate(actor)); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if errs := s.validator.ValidateCourseCreate(req); errs.HasErrors() {
		return nil, errs
	}

	teacher, err := s.checkTeacher(ctx, req.TeacherID, nil)
	if err != nil {
		return nil, err
	}

	start, _ := validator.ParseDate(req.StartDate)
	end, _ := validator.ParseDate(req.EndDate)
	course := &models.Course{
		Name:      req.Name,
		StartDate: datatypes.Date(start),
		EndDate:   datatypes.Date(end),
		Active:    true,
		TeacherID: teacher.ID,
	}
	if req.Active != nil {
		course.Active = *req.Active
	}

	if err := s.repo.Course().Create(ctx, course); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, teacherTakenError(teacher.ID)
		}
		s.logger.Error("Failed to create course", "error", err)
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	course.Teacher = teacher

	s.logger.Info("Course created", "course_id", course.ID, "teacher_id", teacher.ID)
	return models.NewCourseResponse(course), nil
}

func (s *courseService) Get(ctx context.Context, actor authz.Actor, id uint) (*models.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	enrolled := false
	if actor.Role == authz.RoleStudent {
		if enrolled, err = s.repo.Enrollment().Exists(ctx, actor.ID, id); err != nil {
			return nil, fmt.Errorf("failed to check enrollment: %w", err)
		}
	}

	snapshot := authz.SnapshotCourse(course)
	if err := DecisionError(actor, "course", "read", id, s.engine.CourseRead(actor, *snapshot, enrolled)); err != nil {
		return nil, err
	}

	return models.NewCourseResponse(course), nil
}

func (s *courseService) Update(ctx context.Context, actor authz.Actor, id uint, req *UpdateCourseRequest) (*models.CourseResponse, error) {
	if err := DecisionError(actor, "course", "update", id, s.engine.CourseUpdate(actor)); err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if errs := s.validator.ValidateCourseUpdate(req, course); errs.HasErrors() {
		return nil, errs
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.StartDate != nil {
		start, _ := validator.ParseDate(*req.StartDate)
		course.StartDate = datatypes.Date(start)
	}
	if req.EndDate != nil {
		end, _ := validator.ParseDate(*req.EndDate)
		course.EndDate = datatypes.Date(end)
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
	if req.TeacherID != nil && *req.TeacherID != course.TeacherID {
		teacher, err := s.checkTeacher(ctx, *req.TeacherID, &course.ID)
		if err != nil {
			return nil, err
		}
		course.TeacherID = teacher.ID
		course.Teacher = teacher
	}

	if err := s.repo.Course().Update(ctx, course); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, teacherTakenError(course.TeacherID)
		}
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.logger.Info("Course updated", "course_id", id, "actor_id", actor.ID)
	return models.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, actor authz.Actor, id uint) error {
	if err := DecisionError(actor, "course", "delete", id, s.engine.CourseDelete(actor)); err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "actor_id", actor.ID)
	return nil
}

var rosterHeader = []interface{}{"Enrollment ID", "Student ID", "Username", "Email", "Enrolled At"}

// ExportRoster renders the enrolled students of a course as an xlsx sheet
func (s *courseService) ExportRoster(ctx context.Context, actor authz.Actor, id uint) (*RosterFile, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := DecisionError(actor, "course", "export", id, s.engine.RosterExport(actor, *authz.SnapshotCourse(course))); err != nil {
		return nil, err
	}

	roster, err := s.repo.Enrollment().Roster(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Roster"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &rosterHeader); err != nil {
		return nil, fmt.Errorf("failed to write roster header: %w", err)
	}
	for i, entry := range roster {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			entry.EnrollmentID,
			entry.UserID,
			entry.Username,
			entry.Email,
			entry.EnrolledAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write roster row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render roster: %w", err)
	}

	s.logger.Info("Roster exported", "course_id", id, "rows", len(roster), "actor_id", actor.ID)
	return &RosterFile{
		Filename: fmt.Sprintf("course-%d-roster.xlsx", id),
		Content:  buf.Bytes(),
	}, nil
}

// ===== HELPERS =====

func (s *courseService) getCourse(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// checkTeacher verifies teacherID names a teacher without another course
func (s *courseService) checkTeacher(ctx context.Context, teacherID uint, excludeCourse *uint) (*models.User, error) {
	teacher, err := s.repo.User().GetByID(ctx, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fieldError("teacher", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", teacherID), "exists", teacherID)
		}
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if !teacher.IsTeacher() {
		return nil, fieldError("teacher", "Selected user is not a teacher.", "teacher_role", teacherID)
	}

	taken, err := s.repo.Course().ExistsByTeacher(ctx, teacherID, excludeCourse)
	if err != nil {
		return nil, fmt.Errorf("failed to check teacher course: %w", err)
	}
	if taken {
		return nil, teacherTakenError(teacherID)
	}
	return teacher, nil
}

func teacherTakenError(teacherID uint) ValidationErrors {
	return fieldError("teacher", "course with this teacher already exists.", "unique", teacherID)
}
