package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/models"
)

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()

	resp, err := env.sm.User().Register(ctx, &RegisterUserRequest{
		Username: " newbie ",
		Email:    "newbie@school.test",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, "newbie", resp.Username)
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.False(t, resp.IsActive, "accounts start inactive")

	stored, err := env.repo.User().GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "longenough", stored.PasswordHash)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "longenough"))

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.TypeUserRegistered, published[0].Type)

	var payload events.UserRegistered
	require.NoError(t, published[0].Decode(&payload))
	assert.Equal(t, resp.ID, payload.UserID)
	assert.True(t, strings.HasPrefix(payload.ActivationURL, "http://school.test/api/activate/"), payload.ActivationURL)
}

func TestUserService_RegisterSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	env.publisher.FailWith(errors.New("broker down"))

	resp, err := env.sm.User().Register(context.Background(), &RegisterUserRequest{
		Username: "newbie",
		Email:    "newbie@school.test",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.NotZero(t, resp.ID)
}

func TestUserService_RegisterInvalid(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})

	tests := []struct {
		name   string
		req    RegisterUserRequest
		fields []string
	}{
		{name: "duplicate username and email", req: RegisterUserRequest{Username: "sam", Email: "SAM@school.test", Password: "longenough"}, fields: []string{"username", "email"}},
		{name: "short password", req: RegisterUserRequest{Username: "x", Email: "x@school.test", Password: "short"}, fields: []string{"password"}},
		{name: "teacher without cv", req: RegisterUserRequest{Username: "t2", Email: "t2@school.test", Password: "longenough", Role: "teacher"}, fields: []string{"cv"}},
		{name: "bad role", req: RegisterUserRequest{Username: "r", Email: "r@school.test", Password: "longenough", Role: "janitor"}, fields: []string{"role"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.sm.User().Register(context.Background(), &req)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("self", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		resp, err := env.sm.User().Update(ctx, actorOf(t, env.student), env.student.ID, &UpdateUserRequest{
			Email:       strPtr("sam.new@school.test"),
			Gender:      strPtr("female"),
			DateOfBirth: strPtr("2001-02-03"),
		})
		require.NoError(t, err)
		assert.Equal(t, "sam.new@school.test", resp.Email)
		require.NotNil(t, resp.DateOfBirth)
		assert.Equal(t, "2001-02-03", *resp.DateOfBirth)
	})

	t.Run("someone else", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		_, err := env.sm.User().Update(ctx, actorOf(t, env.student), env.otherStudent.ID, &UpdateUserRequest{})
		var permErr *PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "not_profile_owner", permErr.Code)
	})

	t.Run("admin without policy", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		_, err := env.sm.User().Update(ctx, actorOf(t, env.admin), env.student.ID, &UpdateUserRequest{})
		var permErr *PermissionError
		assert.ErrorAs(t, err, &permErr)
	})

	t.Run("admin with policy", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{AdminCanUpdateProfiles: true})
		_, err := env.sm.User().Update(ctx, actorOf(t, env.admin), env.student.ID, &UpdateUserRequest{Gender: strPtr("male")})
		assert.NoError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		_, err := env.sm.User().Update(ctx, actorOf(t, env.student), env.student.ID, &UpdateUserRequest{Email: strPtr("sue@school.test")})
		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "email", errs[0].Field)
	})

	t.Run("password rehashed", func(t *testing.T) {
		env := newTestEnv(t, authz.Policy{})
		_, err := env.sm.User().Update(ctx, actorOf(t, env.student), env.student.ID, &UpdateUserRequest{Password: strPtr("another-secret")})
		require.NoError(t, err)
		stored, err := env.repo.User().GetByID(ctx, env.student.ID)
		require.NoError(t, err)
		assert.True(t, auth.CheckPassword(stored.PasswordHash, "another-secret"))
	})
}

func TestUserService_ListAndGetScopes(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()
	env.enroll(t, env.student, env.open)

	resp, err := env.sm.User().List(ctx, actorOf(t, env.teacher), UserListFilters{})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, env.student.ID, resp.Users[0].ID)

	resp, err = env.sm.User().List(ctx, actorOf(t, env.otherStudent), UserListFilters{})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, env.otherStudent.ID, resp.Users[0].ID)

	resp, err = env.sm.User().List(ctx, authz.Anonymous(), UserListFilters{})
	require.NoError(t, err)
	assert.Empty(t, resp.Users)

	resp, err = env.sm.User().List(ctx, actorOf(t, env.admin), UserListFilters{Role: "teacher"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)

	_, err = env.sm.User().Get(ctx, actorOf(t, env.teacher), env.student.ID)
	assert.NoError(t, err)
	_, err = env.sm.User().Get(ctx, actorOf(t, env.teacher), env.otherStudent.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = env.sm.User().Get(ctx, actorOf(t, env.student), env.otherStudent.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
