package validator

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// ValidateRegister validates a self-registration request
func (v *Validator) ValidateRegister(req *RegisterUserRequest) ValidationErrors {
	return v.Validate(req)
}

// ValidateUserUpdate validates a partial profile update against the stored user
func (v *Validator) ValidateUserUpdate(req *UpdateUserRequest, existing *models.User) ValidationErrors {
	errs := v.Validate(req)

	// A teacher cannot clear their CV
	if existing.IsTeacher() && req.CV != nil && strings.TrimSpace(*req.CV) == "" {
		errs = append(errs, ValidationError{
			Field:   "cv",
			Message: "A CV is required for teachers.",
			Rule:    "teacher_cv",
		})
	}

	return errs
}

// ValidateCourseCreate validates a course creation request
func (v *Validator) ValidateCourseCreate(req *CreateCourseRequest) ValidationErrors {
	errs := v.Validate(req)
	if errs.HasErrors() {
		return errs
	}

	start, _ := ParseDate(req.StartDate)
	end, _ := ParseDate(req.EndDate)
	return append(errs, validateDateOrder(start, end)...)
}

// ValidateCourseUpdate validates a partial course update; missing dates fall
// back to the stored course
func (v *Validator) ValidateCourseUpdate(req *UpdateCourseRequest, existing *models.Course) ValidationErrors {
	errs := v.Validate(req)
	if errs.HasErrors() {
		return errs
	}

	start, end := existing.StartDay(), existing.EndDay()
	if req.StartDate != nil {
		start, _ = ParseDate(*req.StartDate)
	}
	if req.EndDate != nil {
		end, _ = ParseDate(*req.EndDate)
	}
	return append(errs, validateDateOrder(start, end)...)
}

func validateDateOrder(start, end time.Time) ValidationErrors {
	if start.After(end) {
		return ValidationErrors{{
			Field:   "end_date",
			Message: "End date must not be before start date.",
			Value:   end.Format(models.DateLayout),
			Rule:    "date_order",
		}}
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (v *Validator) registerBusinessRules() {
	// Calendar date in YYYY-MM-DD
	v.validate.RegisterValidation("iso_date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	// Django-compatible username characters
	v.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			case strings.ContainsRune("@.+-_", r):
			default:
				return false
			}
		}
		return true
	})

	// Teachers must register with a CV
	v.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(RegisterUserRequest)
		if models.UserRole(req.Role) == models.RoleTeacher && (req.CV == nil || strings.TrimSpace(*req.CV) == "") {
			sl.ReportError(req.CV, "cv", "CV", "teacher_cv", "")
		}
	}, RegisterUserRequest{})
}
