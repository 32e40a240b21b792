package authz

import (
	"time"

	"github.com/SAP-F-2025/school-service/internal/models"
)

// Policy holds the switchable parts of the rule set.
type Policy struct {
	// EnforceUnenrollOwnership requires a student to own the enrollment they delete.
	EnforceUnenrollOwnership bool
	// AdminCanUpdateProfiles lets admins edit any user profile.
	AdminCanUpdateProfiles bool
}

// CourseSnapshot is the course state the rules read.
type CourseSnapshot struct {
	ID        uint
	TeacherID uint
	Active    bool
	StartDate time.Time
}

func SnapshotCourse(c *models.Course) *CourseSnapshot {
	if c == nil {
		return nil
	}
	return &CourseSnapshot{
		ID:        c.ID,
		TeacherID: c.TeacherID,
		Active:    c.Active,
		StartDate: c.StartDay(),
	}
}

// EnrollmentSnapshot is the enrollment state the rules read.
type EnrollmentSnapshot struct {
	ID     uint
	UserID uint
	Course CourseSnapshot
}

// Engine evaluates authorization and eligibility rules. It reads no clock and
// no storage; callers pass every input explicitly.
type Engine struct {
	policy Policy
}

func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// windowOpen reports whether the start date is strictly after the UTC day
// containing now.
func windowOpen(start, now time.Time) bool {
	return models.DayOf(start).After(models.Today(now))
}

// ===== COURSES =====

func (e *Engine) CourseCreate(actor Actor) Decision {
	return e.adminOnly(actor)
}

func (e *Engine) CourseUpdate(actor Actor) Decision {
	return e.adminOnly(actor)
}

func (e *Engine) CourseDelete(actor Actor) Decision {
	return e.adminOnly(actor)
}

func (e *Engine) adminOnly(actor Actor) Decision {
	if actor.Role == RoleAdmin {
		return Allow()
	}
	return Deny(ReasonAdminRequired)
}

// CourseRead allows a single-course read when the course is inside the
// actor's listing scope.
func (e *Engine) CourseRead(actor Actor, course CourseSnapshot, enrolled bool) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow()
	case RoleTeacher:
		if course.TeacherID == actor.ID {
			return Allow()
		}
	case RoleStudent:
		if enrolled {
			return Allow()
		}
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	}
	return Deny(ReasonOutOfScope)
}

// RosterExport allows admins and the owning teacher to export a course roster.
func (e *Engine) RosterExport(actor Actor, course CourseSnapshot) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow()
	case RoleTeacher:
		if course.TeacherID == actor.ID {
			return Allow()
		}
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	}
	return Deny(ReasonRosterAccessDenied)
}

// ===== ENROLLMENTS =====

// EnrollmentCreate evaluates the creation chain in order: role, course
// existence, active flag, start-date window, then self-enrollment. A nil
// course means the referenced course does not exist.
func (e *Engine) EnrollmentCreate(actor Actor, course *CourseSnapshot, requestedUserID uint, today time.Time) Decision {
	switch actor.Role {
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	case RoleTeacher:
		return Deny(ReasonTeachersCannotEnroll)
	}

	if course == nil {
		return Deny(ReasonCourseNotFound)
	}
	if !course.Active {
		return Deny(ReasonCourseInactive)
	}
	if !windowOpen(course.StartDate, today) {
		return Deny(ReasonEnrollmentClosed)
	}
	if requestedUserID != actor.ID {
		return Deny(ReasonCannotEnrollOtherUser)
	}
	return Allow()
}

// EnrollmentDelete evaluates the deletion chain in order: role, start-date
// window, then ownership when the policy requires it.
func (e *Engine) EnrollmentDelete(actor Actor, enrollment EnrollmentSnapshot, today time.Time) Decision {
	switch actor.Role {
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	case RoleTeacher:
		return Deny(ReasonTeachersCannotUnenroll)
	}

	if !windowOpen(enrollment.Course.StartDate, today) {
		return Deny(ReasonUnenrollClosed)
	}

	if e.policy.EnforceUnenrollOwnership && actor.Role == RoleStudent && enrollment.UserID != actor.ID {
		return Deny(ReasonNotEnrollmentOwner)
	}
	return Allow()
}

// EnrollmentRead allows a single-enrollment read inside the actor's scope.
func (e *Engine) EnrollmentRead(actor Actor, enrollment EnrollmentSnapshot) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow()
	case RoleTeacher:
		if enrollment.Course.TeacherID == actor.ID {
			return Allow()
		}
	case RoleStudent:
		if enrollment.UserID == actor.ID {
			return Allow()
		}
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	}
	return Deny(ReasonOutOfScope)
}

// ===== USERS =====

// UserCreate always allows; registration is open to anonymous callers.
func (e *Engine) UserCreate(Actor) Decision {
	return Allow()
}

func (e *Engine) UserUpdate(actor Actor, targetID uint) Decision {
	switch actor.Role {
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	case RoleAdmin:
		if e.policy.AdminCanUpdateProfiles {
			return Allow()
		}
	}
	if actor.ID == targetID {
		return Allow()
	}
	return Deny(ReasonNotProfileOwner)
}

// UserRead allows a single-user read inside the actor's listing scope.
// taught reports whether target is enrolled in a course the actor owns.
func (e *Engine) UserRead(actor Actor, targetID uint, taught bool) Decision {
	switch actor.Role {
	case RoleAdmin:
		return Allow()
	case RoleTeacher:
		if taught || actor.ID == targetID {
			return Allow()
		}
	case RoleStudent:
		if actor.ID == targetID {
			return Allow()
		}
	case RoleAnonymous:
		return Deny(ReasonUnauthenticated)
	}
	return Deny(ReasonOutOfScope)
}
