package models

import (
	"time"
)

// ===== RESPONSES =====

type UserResponse struct {
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	Gender      *Gender  `json:"gender"`
	DateOfBirth *string  `json:"date_of_birth"`
	CV          *string  `json:"cv"`
	IsActive    bool     `json:"is_active"`
}

func NewUserResponse(u *User) *UserResponse {
	resp := &UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Gender:   u.Gender,
		CV:       u.CVPath,
		IsActive: u.IsActive,
	}
	if u.DateOfBirth != nil {
		dob := time.Time(*u.DateOfBirth).Format(DateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

type CourseResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Active      bool   `json:"active"`
	Teacher     uint   `json:"teacher"`
	TeacherName string `json:"teacher_name,omitempty"`
}

func NewCourseResponse(c *Course) *CourseResponse {
	resp := &CourseResponse{
		ID:        c.ID,
		Name:      c.Name,
		StartDate: c.StartDay().Format(DateLayout),
		EndDate:   c.EndDay().Format(DateLayout),
		Active:    c.Active,
		Teacher:   c.TeacherID,
	}
	if c.Teacher != nil {
		resp.TeacherName = c.Teacher.Username
	}
	return resp
}

type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	User       uint      `json:"user"`
	Course     uint      `json:"course"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func NewEnrollmentResponse(e *Enrollment) *EnrollmentResponse {
	return &EnrollmentResponse{
		ID:         e.ID,
		User:       e.UserID,
		Course:     e.CourseID,
		EnrolledAt: e.EnrolledAt,
	}
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// ===== PAGINATION =====

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
	Empty         bool        `json:"empty"`
}

func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Page:          page,
		Empty:         count == 0,
	}
}

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"
