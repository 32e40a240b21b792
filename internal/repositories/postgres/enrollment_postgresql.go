package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
)

type EnrollmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewEnrollmentPostgreSQL(db *gorm.DB, cm *cache.CacheManager) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cm,
	}
}

// Create stores an enrollment; student course listings change with it
func (e *EnrollmentPostgreSQL) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := e.db.WithContext(ctx).Omit(clause.Associations).Create(enrollment).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to create enrollment: %w", repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}
	cache.DropCourseListings(ctx, e.cacheManager)
	return nil
}

func (e *EnrollmentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := e.db.WithContext(ctx).Delete(&models.Enrollment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete enrollment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("enrollment %d: %w", id, repositories.ErrNotFound)
	}
	cache.DropCourseListings(ctx, e.cacheManager)
	return nil
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := e.db.WithContext(ctx).Preload("Course").First(&enrollment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("enrollment %d: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	var enrollments []*models.Enrollment
	var total int64

	query := e.db.WithContext(ctx).Model(&models.Enrollment{})
	query = e.helpers.ApplyEnrollmentScope(query, filters.Scope)
	if filters.CourseID != nil {
		query = query.Where("enrollments.course_id = ?", *filters.CourseID)
	}
	if filters.UserID != nil {
		query = query.Where("enrollments.user_id = ?", *filters.UserID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, "enrollments", "id", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&enrollments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	return enrollments, total, nil
}

func (e *EnrollmentPostgreSQL) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := e.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}

// Roster lists the students of a course ordered by username
func (e *EnrollmentPostgreSQL) Roster(ctx context.Context, courseID uint) ([]repositories.RosterEntry, error) {
	var entries []repositories.RosterEntry
	err := e.db.WithContext(ctx).
		Table("enrollments").
		Select("enrollments.id AS enrollment_id, users.id AS user_id, users.username, users.email, enrollments.enrolled_at").
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("enrollments.course_id = ?", courseID).
		Order("users.username ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return entries, nil
}
