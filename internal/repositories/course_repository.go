package repositories

import (
	"context"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// CourseRepository is the course registry
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error

	// GetByID preloads the teacher
	GetByID(ctx context.Context, id uint) (*models.Course, error)

	// List applies the name and teacher filters, then filters.Scope
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)

	ExistsByTeacher(ctx context.Context, teacherID uint, excludeID *uint) (bool, error)
}
