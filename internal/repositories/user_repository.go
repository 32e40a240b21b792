package repositories

import (
	"context"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// UserRepository is the identity store
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List applies filters.Scope before pagination
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	SetActive(ctx context.Context, id uint, active bool) error

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
