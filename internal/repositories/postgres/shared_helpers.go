package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/repositories"
)

// SharedHelpers contains common query building
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ApplyCourseFilters applies the optional name and teacher-name substring filters
func (h *SharedHelpers) ApplyCourseFilters(query *gorm.DB, filters repositories.CourseFilters) *gorm.DB {
	if name := strings.TrimSpace(filters.Name); name != "" {
		query = query.Where("courses.name ILIKE ?", containsPattern(name))
	}
	if teacherName := strings.TrimSpace(filters.TeacherName); teacherName != "" {
		query = query.
			Joins("JOIN users AS teacher ON teacher.id = courses.teacher_id").
			Where("teacher.username ILIKE ?", containsPattern(teacherName))
	}
	return query
}

// ApplyCourseScope restricts a course query to the actor's visible rows
func (h *SharedHelpers) ApplyCourseScope(query *gorm.DB, scope authz.Scope) *gorm.DB {
	switch scope.Kind {
	case authz.ScopeAll:
		return query
	case authz.ScopeOwnedBy:
		return query.Where("courses.teacher_id = ?", scope.UserID)
	case authz.ScopeEnrolledBy:
		return query.Where("EXISTS (SELECT 1 FROM enrollments WHERE enrollments.course_id = courses.id AND enrollments.user_id = ?)", scope.UserID)
	default:
		return query.Where("1 = 0")
	}
}

// ApplyUserScope restricts a user query to the actor's visible rows
func (h *SharedHelpers) ApplyUserScope(query *gorm.DB, scope authz.Scope) *gorm.DB {
	switch scope.Kind {
	case authz.ScopeAll:
		return query
	case authz.ScopeSelf:
		return query.Where("users.id = ?", scope.UserID)
	case authz.ScopeStudentsOf:
		return query.Where("EXISTS (SELECT 1 FROM enrollments JOIN courses ON courses.id = enrollments.course_id WHERE enrollments.user_id = users.id AND courses.teacher_id = ?)", scope.UserID)
	default:
		return query.Where("1 = 0")
	}
}

// ApplyEnrollmentScope restricts an enrollment query to the actor's visible rows
func (h *SharedHelpers) ApplyEnrollmentScope(query *gorm.DB, scope authz.Scope) *gorm.DB {
	switch scope.Kind {
	case authz.ScopeAll:
		return query
	case authz.ScopeSelf:
		return query.Where("enrollments.user_id = ?", scope.UserID)
	case authz.ScopeOwnedBy:
		return query.Where("EXISTS (SELECT 1 FROM courses WHERE courses.id = enrollments.course_id AND courses.teacher_id = ?)", scope.UserID)
	default:
		return query.Where("1 = 0")
	}
}

// Whitelisted sort columns per table
var sortColumns = map[string]map[string]bool{
	"courses": {
		"id":         true,
		"name":       true,
		"start_date": true,
		"end_date":   true,
		"created_at": true,
	},
	"users": {
		"id":         true,
		"username":   true,
		"created_at": true,
	},
	"enrollments": {
		"id":          true,
		"enrolled_at": true,
	},
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, table, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !sortColumns[table][sortBy] {
		sortBy = "id"
	}

	if sortOrder == "desc" || sortOrder == "DESC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(table + "." + sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
