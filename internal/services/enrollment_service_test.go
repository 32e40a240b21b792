package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/models"
)

func TestEnrollmentService_Create(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.sm.Enrollment()
	ctx := context.Background()

	resp, err := svc.Create(ctx, actorOf(t, env.student), &CreateEnrollmentRequest{UserID: env.student.ID, CourseID: env.open.ID})
	require.NoError(t, err)
	assert.Equal(t, env.student.ID, resp.User)
	assert.Equal(t, env.open.ID, resp.Course)
	assert.True(t, resp.EnrolledAt.Equal(today), "enrolled_at comes from the clock")

	list, err := env.sm.Course().List(ctx, actorOf(t, env.student), CourseListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, env.open.ID, list.Courses[0].ID)
}

func TestEnrollmentService_CreateDenied(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.sm.Enrollment()

	tests := []struct {
		name      string
		actor     *models.User
		userID    uint
		courseID  uint
		permCode  string
		rule      string
		sentinel  error
		fieldName string
	}{
		{name: "other user", actor: env.student, userID: env.otherStudent.ID, courseID: env.open.ID, permCode: "cannot_enroll_other_user"},
		{name: "inactive course", actor: env.student, userID: env.student.ID, courseID: env.inactive.ID, rule: "course_inactive"},
		{name: "course started today", actor: env.student, userID: env.student.ID, courseID: env.started.ID, rule: "enrollment_closed"},
		{name: "teacher", actor: env.teacher, userID: env.student.ID, courseID: env.open.ID, permCode: "teachers_cannot_enroll"},
		{name: "missing course", actor: env.student, userID: env.student.ID, courseID: 999, sentinel: ErrCourseNotFound},
		{name: "anonymous", userID: env.student.ID, courseID: env.open.ID, sentinel: ErrUnauthorized},
		// role check precedes course checks
		{name: "teacher on missing course", actor: env.teacher, userID: env.student.ID, courseID: 999, permCode: "teachers_cannot_enroll"},
		// inactive precedes other-user
		{name: "inactive and other user", actor: env.student, userID: env.otherStudent.ID, courseID: env.inactive.ID, rule: "course_inactive"},
		{name: "admin enrolling a teacher", actor: env.admin, userID: env.teacher.ID, courseID: env.open.ID, permCode: "cannot_enroll_other_user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := authz.Anonymous()
			if tt.actor != nil {
				actor = actorOf(t, tt.actor)
			}
			_, err := svc.Create(context.Background(), actor, &CreateEnrollmentRequest{UserID: tt.userID, CourseID: tt.courseID})
			require.Error(t, err)

			switch {
			case tt.permCode != "":
				var permErr *PermissionError
				require.ErrorAs(t, err, &permErr)
				assert.Equal(t, tt.permCode, permErr.Code)
			case tt.rule != "":
				var ruleErr *BusinessRuleError
				require.ErrorAs(t, err, &ruleErr)
				assert.Equal(t, tt.rule, ruleErr.Rule)
			default:
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}

	_, total, err := env.repo.Enrollment().List(context.Background(), listAll())
	require.NoError(t, err)
	assert.Zero(t, total, "denied requests must not write")
}

func TestEnrollmentService_AlreadyEnrolled(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	svc := env.sm.Enrollment()
	ctx := context.Background()
	req := &CreateEnrollmentRequest{UserID: env.student.ID, CourseID: env.open.ID}

	_, err := svc.Create(ctx, actorOf(t, env.student), req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, actorOf(t, env.student), req)
	require.ErrorIs(t, err, ErrConflict)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "already_enrolled", conflict.Rule)
}

func TestEnrollmentService_AdminSelfEnrollment(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})

	// admins may only enroll themselves, and an admin is not a student
	_, err := env.sm.Enrollment().Create(context.Background(), actorOf(t, env.admin), &CreateEnrollmentRequest{UserID: env.admin.ID, CourseID: env.open.ID})
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "user", errs[0].Field)
}

func TestEnrollmentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("own enrollment before start", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		en := env.enroll(t, env.student, env.open)
		require.NoError(t, env.sm.Enrollment().Delete(ctx, actorOf(t, env.student), en.ID))

		_, err := env.repo.Enrollment().GetByID(ctx, en.ID)
		assert.Error(t, err)
	})

	t.Run("after start", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		en := env.enroll(t, env.student, env.started)
		err := env.sm.Enrollment().Delete(ctx, actorOf(t, env.student), en.ID)
		var ruleErr *BusinessRuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.Equal(t, "unenroll_closed", ruleErr.Rule)
	})

	t.Run("teacher", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		en := env.enroll(t, env.student, env.open)
		err := env.sm.Enrollment().Delete(ctx, actorOf(t, env.teacher), en.ID)
		var permErr *PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "teachers_cannot_unenroll", permErr.Code)
	})

	t.Run("other student without ownership policy", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		en := env.enroll(t, env.student, env.open)
		assert.NoError(t, env.sm.Enrollment().Delete(ctx, actorOf(t, env.otherStudent), en.ID))
	})

	t.Run("other student with ownership policy", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{EnforceUnenrollOwnership: true})
		en := env.enroll(t, env.student, env.open)
		err := env.sm.Enrollment().Delete(ctx, actorOf(t, env.otherStudent), en.ID)
		var permErr *PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "not_enrollment_owner", permErr.Code)
	})

	t.Run("missing", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		err := env.sm.Enrollment().Delete(ctx, actorOf(t, env.student), 999)
		assert.True(t, errors.Is(err, ErrEnrollmentNotFound))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEnrollmentService_ListAndGetScopes(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()
	mine := env.enroll(t, env.student, env.open)
	theirs := env.enroll(t, env.otherStudent, env.inactive)

	tests := []struct {
		name  string
		actor authz.Actor
		want  []uint
	}{
		{name: "admin", actor: actorOf(t, env.admin), want: []uint{mine.ID, theirs.ID}},
		{name: "owning teacher", actor: actorOf(t, env.teacher), want: []uint{mine.ID}},
		{name: "teacher without enrollments", actor: actorOf(t, env.lateTeacher), want: []uint{}},
		{name: "student", actor: actorOf(t, env.student), want: []uint{mine.ID}},
		{name: "anonymous", actor: authz.Anonymous(), want: []uint{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.sm.Enrollment().List(ctx, tt.actor, EnrollmentListFilters{})
			require.NoError(t, err)
			got := []uint{}
			for _, e := range resp.Enrollments {
				got = append(got, e.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := env.sm.Enrollment().Get(ctx, actorOf(t, env.student), theirs.ID)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound, "out-of-scope reads look like misses")

	got, err := env.sm.Enrollment().Get(ctx, actorOf(t, env.teacher), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, env.student.ID, got.User)
}

func TestDecisionError(t *testing.T) {
	actor := authz.Actor{ID: 7, Role: authz.RoleStudent}

	assert.NoError(t, DecisionError(actor, "course", "read", 1, authz.Allow()))
	assert.ErrorIs(t, DecisionError(actor, "course", "read", 1, authz.Deny(authz.ReasonUnauthenticated)), ErrUnauthorized)
	assert.ErrorIs(t, DecisionError(actor, "enrollment", "create", 1, authz.Deny(authz.ReasonCourseNotFound)), ErrCourseNotFound)
	assert.ErrorIs(t, DecisionError(actor, "user", "read", 1, authz.Deny(authz.ReasonOutOfScope)), ErrUserNotFound)
	assert.ErrorIs(t, DecisionError(actor, "enrollment", "create", 1, authz.Deny(authz.ReasonAlreadyEnrolled)), ErrConflict)

	var permErr *PermissionError
	require.ErrorAs(t, DecisionError(actor, "course", "create", 0, authz.Deny(authz.ReasonAdminRequired)), &permErr)
	assert.Equal(t, "admin_required", permErr.Code)
	assert.Equal(t, uint(7), permErr.UserID)
}
