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

type CoursePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCoursePostgreSQL(db *gorm.DB, cm *cache.CacheManager) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cm,
	}
}

// Create creates a course and invalidates cached listings
func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to create course: %w", repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create course: %w", err)
	}
	cache.DropCourseListings(ctx, c.cacheManager)
	return nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	err := c.db.WithContext(ctx).
		Model(&models.Course{ID: course.ID}).
		Select("name", "start_date", "end_date", "active", "teacher_id", "updated_at").
		Updates(course).Error
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to update course: %w", repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to update course: %w", err)
	}
	cache.DropCourse(ctx, c.cacheManager, course.ID)
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete course: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
	}
	cache.DropCourse(ctx, c.cacheManager, id)
	return nil
}

// GetByID retrieves a course with its teacher, cached by id
func (c *CoursePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	return cache.Fetch(ctx, c.cacheManager.Course, cache.CourseKey(id), func() (*models.Course, error) {
		var course models.Course
		err := c.db.WithContext(ctx).
			Preload("Teacher").
			First(&course, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("course %d: %w", id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get course: %w", err)
		}
		return &course, nil
	})
}

type coursePage struct {
	Courses []*models.Course `json:"courses"`
	Total   int64            `json:"total"`
}

func courseListFilter(f repositories.CourseFilters) string {
	return fmt.Sprintf("%d:%d:%s:%s:%d:%d:%s:%s",
		f.Scope.Kind, f.Scope.UserID, f.Name, f.TeacherName,
		f.Limit, f.Offset, f.SortBy, f.SortOrder)
}

// List applies substring filters first, then the role scope
func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	result, err := cache.Fetch(ctx, c.cacheManager.Course, cache.CourseListKey(ctx, c.cacheManager, courseListFilter(filters)), func() (coursePage, error) {
		var page coursePage

		query := c.db.WithContext(ctx).Model(&models.Course{})
		query = c.helpers.ApplyCourseFilters(query, filters)
		query = c.helpers.ApplyCourseScope(query, filters.Scope)

		if err := query.Count(&page.Total).Error; err != nil {
			return page, fmt.Errorf("failed to count courses: %w", err)
		}

		query = c.helpers.ApplyPaginationAndSort(query, "courses", filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
		if err := query.Preload("Teacher").Find(&page.Courses).Error; err != nil {
			return page, fmt.Errorf("failed to list courses: %w", err)
		}
		return page, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Courses, result.Total, nil
}

func (c *CoursePostgreSQL) ExistsByTeacher(ctx context.Context, teacherID uint, excludeID *uint) (bool, error) {
	var count int64
	query := c.db.WithContext(ctx).Model(&models.Course{}).Where("teacher_id = ?", teacherID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check teacher course: %w", err)
	}
	return count > 0, nil
}
