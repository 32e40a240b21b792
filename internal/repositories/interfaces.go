package repositories

import (
	"time"

	"github.com/SAP-F-2025/school-service/internal/authz"
)

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Name        string      `json:"name"`         // case-insensitive substring of the course name
	TeacherName string      `json:"teacher_name"` // case-insensitive substring of the teacher username
	Scope       authz.Scope `json:"-"`
	Limit       int         `json:"limit"`
	Offset      int         `json:"offset"`
	SortBy      string      `json:"sort_by"`    // "id", "name", "start_date", "end_date"
	SortOrder   string      `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Query  string      `json:"q"` // substring of username or email
	Role   string      `json:"role"`
	Scope  authz.Scope `json:"-"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type EnrollmentFilters struct {
	CourseID *uint       `json:"course"`
	UserID   *uint       `json:"user"`
	Scope    authz.Scope `json:"-"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
}

// RosterEntry is one enrolled student of a course.
type RosterEntry struct {
	EnrollmentID uint
	UserID       uint
	Username     string
	Email        string
	EnrolledAt   time.Time
}
