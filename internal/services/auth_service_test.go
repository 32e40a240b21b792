package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
)

type stubVerifier struct {
	identity *auth.ExternalIdentity
	err      error
}

func (s stubVerifier) Verify(string) (*auth.ExternalIdentity, error) {
	return s.identity, s.err
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()

	pair, err := env.sm.Auth().Login(ctx, &TokenRequest{Username: "sam", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	user, err := env.sm.Auth().Authenticate(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, env.student.ID, user.ID)

	refreshed, err := env.sm.Auth().Refresh(ctx, &RefreshRequest{Refresh: pair.Refresh})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)
	assert.Empty(t, refreshed.Refresh)

	_, err = env.sm.Auth().Refresh(ctx, &RefreshRequest{Refresh: pair.Access})
	assert.ErrorIs(t, err, ErrUnauthorized, "access tokens cannot refresh")

	_, err = env.sm.Auth().Authenticate(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrUnauthorized, "refresh tokens cannot authenticate")
}

func TestAuthService_LoginRejected(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()
	require.NoError(t, env.repo.User().SetActive(ctx, env.otherStudent.ID, false))

	tests := []struct {
		name string
		req  TokenRequest
	}{
		{name: "wrong password", req: TokenRequest{Username: "sam", Password: "nope-nope"}},
		{name: "unknown user", req: TokenRequest{Username: "ghost", Password: testPassword}},
		{name: "inactive user", req: TokenRequest{Username: "sue", Password: testPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := env.sm.Auth().Login(ctx, &req)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	_, err := env.sm.Auth().Login(ctx, &TokenRequest{})
	var errs ValidationErrors
	assert.ErrorAs(t, err, &errs)
}

func TestAuthService_ExternalVerifier(t *testing.T) {
	env := newTestEnv(t, authz.Policy{})
	ctx := context.Background()
	tokens := auth.NewManager(testAuthConfig)

	tests := []struct {
		name     string
		verifier ExternalVerifier
		wantID   uint
		wantErr  error
	}{
		{name: "by username", verifier: stubVerifier{identity: &auth.ExternalIdentity{Username: "sam"}}, wantID: env.student.ID},
		{name: "by email", verifier: stubVerifier{identity: &auth.ExternalIdentity{Username: "sam-sso", Email: "tina@school.test"}}, wantID: env.teacher.ID},
		{name: "unknown identity", verifier: stubVerifier{identity: &auth.ExternalIdentity{Username: "ghost"}}, wantErr: ErrUnauthorized},
		{name: "verifier rejects", verifier: stubVerifier{err: errors.New("bad signature")}, wantErr: ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(env.repo, discardLogger(), nil, tokens, tt.verifier)
			user, err := svc.Authenticate(ctx, "opaque-provider-token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}

	svc := NewAuthService(env.repo, discardLogger(), nil, tokens, nil)
	_, err := svc.Authenticate(ctx, "opaque-provider-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
