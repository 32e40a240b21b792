package repositories

import (
	"context"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// EnrollmentRepository is the enrollment ledger
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error

	// GetByID preloads the course
	GetByID(ctx context.Context, id uint) (*models.Enrollment, error)
	List(ctx context.Context, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)

	Exists(ctx context.Context, userID, courseID uint) (bool, error)
	Roster(ctx context.Context, courseID uint) ([]RosterEntry, error)
}
