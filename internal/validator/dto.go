package validator

// RegisterUserRequest is the self-registration payload
type RegisterUserRequest struct {
	Username    string  `json:"username" validate:"required,min=1,max=150,username"`
	Email       string  `json:"email" validate:"required,email,max=254"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	Role        string  `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,iso_date"`
	CV          *string `json:"cv" validate:"omitempty,max=500"`
}

// UpdateUserRequest is a partial profile update; username and role are not
// accepted here
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=128"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,iso_date"`
	CV          *string `json:"cv" validate:"omitempty,max=500"`
}

type CreateCourseRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	StartDate string `json:"start_date" validate:"required,iso_date"`
	EndDate   string `json:"end_date" validate:"required,iso_date"`
	Active    *bool  `json:"active"`
	TeacherID uint   `json:"teacher" validate:"required"`
}

type UpdateCourseRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	StartDate *string `json:"start_date" validate:"omitempty,iso_date"`
	EndDate   *string `json:"end_date" validate:"omitempty,iso_date"`
	Active    *bool   `json:"active"`
	TeacherID *uint   `json:"teacher" validate:"omitempty,min=1"`
}

type CreateEnrollmentRequest struct {
	UserID   uint `json:"user" validate:"required"`
	CourseID uint `json:"course" validate:"required"`
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
