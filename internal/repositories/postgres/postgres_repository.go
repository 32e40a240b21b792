package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/repositories"
)

const defaultPingTimeout = 5 * time.Second

// RepositoryConfig holds the connections the store is built from. RedisClient
// is optional; without it course reads go straight to the database.
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	PingTimeout time.Duration
}

// PostgreSQLRepository is the gorm-backed school store. Every sub-repository
// shares one db handle, so a transaction-bound copy sees its own writes.
type PostgreSQLRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheManager

	user       repositories.UserRepository
	course     repositories.CourseRepository
	enrollment repositories.EnrollmentRepository
}

func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	return bind(config.DB, config.RedisClient, cache.NewCacheManager(config.RedisClient))
}

func bind(db *gorm.DB, redisClient *redis.Client, cm *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:         db,
		redis:      redisClient,
		cache:      cm,
		user:       NewUserPostgreSQL(db, cm),
		course:     NewCoursePostgreSQL(db, cm),
		enrollment: NewEnrollmentPostgreSQL(db, cm),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgreSQLRepository) Course() repositories.CourseRepository         { return r.course }
func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }

// WithTransaction runs fn against a copy of the store bound to one database
// transaction. Cache invalidations issued inside fn are not rolled back.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx, r.redis, r.cache))
	})
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	var errs []error
	if err := sqlDB.PingContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database ping failed: %w", err))
	}
	if r.cache.Enabled() {
		if err := r.cache.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cache ping failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the database pool and the redis client, reporting every
// failure.
func (r *PostgreSQLRepository) Close() error {
	var errs []error

	if sqlDB, err := r.db.DB(); err != nil {
		errs = append(errs, fmt.Errorf("failed to get database instance: %w", err))
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RepositoryManager owns the store's lifecycle: it verifies connectivity once
// at startup and hands out the shared repository afterwards.
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	if config.PingTimeout <= 0 {
		config.PingTimeout = defaultPingTimeout
	}
	return &RepositoryManager{config: config}
}

func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return errors.New("database connection is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), rm.config.PingTimeout)
	defer cancel()

	repo := NewPostgreSQLRepository(rm.config)
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("store not reachable: %w", err)
	}

	rm.repo = repo
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return errors.New("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
