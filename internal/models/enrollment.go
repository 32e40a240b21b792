package models

import "time"

type Enrollment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user" gorm:"not null;uniqueIndex:idx_enrollment_user_course"`
	CourseID   uint      `json:"course" gorm:"not null;uniqueIndex:idx_enrollment_user_course;index"`
	EnrolledAt time.Time `json:"enrolled_at" gorm:"not null;<-:create"`

	User   *User   `json:"-" gorm:"foreignKey:UserID"`
	Course *Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
