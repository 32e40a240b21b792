package models

import (
	"time"

	"gorm.io/datatypes"
)

type Course struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"not null;size:100;index"`
	StartDate datatypes.Date `json:"start_date" gorm:"not null"`
	EndDate   datatypes.Date `json:"end_date" gorm:"not null"`
	Active    bool           `json:"active" gorm:"not null;default:true"`

	// One teacher owns at most one course
	TeacherID uint  `json:"teacher" gorm:"not null;uniqueIndex"`
	Teacher   *User `json:"teacher_detail,omitempty" gorm:"foreignKey:TeacherID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Enrollments []Enrollment `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

func (Course) TableName() string {
	return "courses"
}

// StartDay returns the start date as a calendar day in UTC.
func (c *Course) StartDay() time.Time {
	return DayOf(time.Time(c.StartDate))
}

// EndDay returns the end date as a calendar day in UTC.
func (c *Course) EndDay() time.Time {
	return DayOf(time.Time(c.EndDate))
}

// Today returns the UTC calendar day containing the instant now.
func Today(now time.Time) time.Time {
	return DayOf(now.UTC())
}

// DayOf truncates t to its calendar day, keeping the date as written in t's location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
