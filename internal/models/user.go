package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:150"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:254"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:10;default:student"`

	// Profile info
	Gender      *Gender         `json:"gender,omitempty" gorm:"size:6"`
	DateOfBirth *datatypes.Date `json:"date_of_birth,omitempty"`
	CVPath      *string         `json:"cv,omitempty" gorm:"size:500"`

	// Status
	IsActive bool `json:"is_active" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course      *Course      `json:"-" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Enrollments []Enrollment `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
