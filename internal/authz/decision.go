package authz

// Reason is a stable, machine-readable denial code.
type Reason string

const (
	ReasonNone                   Reason = ""
	ReasonUnauthenticated        Reason = "authentication_required"
	ReasonAdminRequired          Reason = "admin_required"
	ReasonTeachersCannotEnroll   Reason = "teachers_cannot_enroll"
	ReasonCourseNotFound         Reason = "course_not_found"
	ReasonCourseInactive         Reason = "course_inactive"
	ReasonEnrollmentClosed       Reason = "enrollment_closed"
	ReasonCannotEnrollOtherUser  Reason = "cannot_enroll_other_user"
	ReasonTeachersCannotUnenroll Reason = "teachers_cannot_unenroll"
	ReasonUnenrollClosed         Reason = "unenroll_closed"
	ReasonNotEnrollmentOwner     Reason = "not_enrollment_owner"
	ReasonNotProfileOwner        Reason = "not_profile_owner"
	ReasonAlreadyEnrolled        Reason = "already_enrolled"
	ReasonOutOfScope             Reason = "out_of_scope"
	ReasonRosterAccessDenied     Reason = "roster_access_denied"
)

// Kind classifies a denial for transport mapping.
type Kind int

const (
	KindNone Kind = iota
	KindUnauthenticated
	KindForbidden
	KindBusinessRule
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindBusinessRule:
		return "business_rule"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "none"
	}
}

var reasonKinds = map[Reason]Kind{
	ReasonUnauthenticated:        KindUnauthenticated,
	ReasonAdminRequired:          KindForbidden,
	ReasonTeachersCannotEnroll:   KindForbidden,
	ReasonCourseNotFound:         KindNotFound,
	ReasonCourseInactive:         KindBusinessRule,
	ReasonEnrollmentClosed:       KindBusinessRule,
	ReasonCannotEnrollOtherUser:  KindForbidden,
	ReasonTeachersCannotUnenroll: KindForbidden,
	ReasonUnenrollClosed:         KindBusinessRule,
	ReasonNotEnrollmentOwner:     KindForbidden,
	ReasonNotProfileOwner:        KindForbidden,
	ReasonAlreadyEnrolled:        KindConflict,
	ReasonOutOfScope:             KindNotFound,
	ReasonRosterAccessDenied:     KindForbidden,
}

var reasonMessages = map[Reason]string{
	ReasonUnauthenticated:        "Authentication credentials were not provided.",
	ReasonAdminRequired:          "Only admins can perform this action.",
	ReasonTeachersCannotEnroll:   "Only students can enroll in a course.",
	ReasonCourseNotFound:         "Course not found.",
	ReasonCourseInactive:         "Course is not active so you can not enroll in this course.",
	ReasonEnrollmentClosed:       "Enrollment not allowed after the course start date.",
	ReasonCannotEnrollOtherUser:  "You are not authorized to enroll other users in this course.",
	ReasonTeachersCannotUnenroll: "Only students can leave a course.",
	ReasonUnenrollClosed:         "Leaving not allowed after the course start date.",
	ReasonNotEnrollmentOwner:     "You can only leave courses you are enrolled in.",
	ReasonNotProfileOwner:        "You do not have permission to perform this action.",
	ReasonAlreadyEnrolled:        "User is already enrolled in this course.",
	ReasonOutOfScope:             "Not found.",
	ReasonRosterAccessDenied:     "Only admins and the course teacher can export the roster.",
}

// Kind returns the denial class of r.
func (r Reason) Kind() Kind {
	if k, ok := reasonKinds[r]; ok {
		return k
	}
	return KindNone
}

// Message returns the human-readable text for r.
func (r Reason) Message() string {
	if m, ok := reasonMessages[r]; ok {
		return m
	}
	return string(r)
}

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

func (d Decision) Kind() Kind {
	if d.Allowed {
		return KindNone
	}
	return d.Reason.Kind()
}
