package cache

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	// CourseListPattern matches every cached course listing.
	CourseListPattern = "list:*"
	courseRowPattern  = "id:*"
	courseListGen     = "list"
)

// CourseKey is the cache key of a single course row.
func CourseKey(id uint) string {
	return fmt.Sprintf("id:%d", id)
}

// CourseListKey is the cache key of one filtered course listing under the
// current listing generation.
func CourseListKey(ctx context.Context, cm *CacheManager, filter string) string {
	return fmt.Sprintf("list:%d:%s", cm.Course.Generation(ctx, courseListGen), filter)
}

// DropCourseListings retires every cached course listing, logging failures.
func DropCourseListings(ctx context.Context, cm *CacheManager) {
	if err := cm.Course.Bump(ctx, courseListGen); err != nil {
		slog.ErrorContext(ctx, "Failed to advance course listing generation", "error", err)
	}
	if err := cm.Course.InvalidatePattern(ctx, CourseListPattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate course listings", "error", err)
	}
}

// DropCourse invalidates a course row and every cached course listing.
func DropCourse(ctx context.Context, cm *CacheManager, courseID uint) {
	if err := cm.Course.Delete(ctx, CourseKey(courseID)); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cached course",
			"error", err,
			"course_id", courseID)
	}
	DropCourseListings(ctx, cm)
}

// DropAllCourses invalidates every cached course row and listing. Used when a
// teacher's profile changes, since cached courses embed the teacher.
func DropAllCourses(ctx context.Context, cm *CacheManager) {
	if err := cm.Course.InvalidatePattern(ctx, courseRowPattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cached courses", "error", err)
	}
	DropCourseListings(ctx, cm)
}
