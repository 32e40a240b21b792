package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/utils"
)

type (
	ValidationError  = utils.ValidationError
	ValidationErrors = utils.ValidationErrors
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrCourseNotFound     = fmt.Errorf("course %w", ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment %w", ErrNotFound)

	ErrUnauthorized       = errors.New("authentication credentials were not provided")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrActivationInvalid  = errors.New("activation link is invalid or expired")
	ErrConflict           = errors.New("conflict")
)

// PermissionError is returned when an actor may not perform an action
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Code       string
	Reason     string
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// BusinessRuleError is a well-formed request refused by an eligibility rule
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s: %s", e.Rule, e.Message)
}

// ConflictError is a request clashing with existing state
type ConflictError struct {
	Rule    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// notFoundFor maps a resource name to its sentinel
func notFoundFor(resource string) error {
	switch resource {
	case "course":
		return ErrCourseNotFound
	case "enrollment":
		return ErrEnrollmentNotFound
	case "user":
		return ErrUserNotFound
	default:
		return ErrNotFound
	}
}

// DecisionError converts a denied decision into the service error of its kind.
// It returns nil for an allowed decision.
func DecisionError(actor authz.Actor, resource, action string, resourceID uint, d authz.Decision) error {
	if d.Allowed {
		return nil
	}

	switch d.Kind() {
	case authz.KindUnauthenticated:
		return ErrUnauthorized
	case authz.KindForbidden:
		return &PermissionError{
			UserID:     actor.ID,
			ResourceID: resourceID,
			Resource:   resource,
			Action:     action,
			Code:       string(d.Reason),
			Reason:     d.Reason.Message(),
		}
	case authz.KindBusinessRule:
		return NewBusinessRuleError(string(d.Reason), d.Reason.Message(), map[string]interface{}{
			"resource":    resource,
			"resource_id": resourceID,
		})
	case authz.KindNotFound:
		if d.Reason == authz.ReasonCourseNotFound {
			return ErrCourseNotFound
		}
		return notFoundFor(resource)
	case authz.KindConflict:
		return &ConflictError{Rule: string(d.Reason), Message: d.Reason.Message()}
	default:
		return fmt.Errorf("%s %s denied: %s", action, resource, d.Reason)
	}
}

func fieldError(field, message, rule string, value interface{}) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Rule: rule, Value: value}}
}
