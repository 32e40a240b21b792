package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/models"
)

var activationCfg = config.AuthConfig{
	JWTSecret:     "activation-secret",
	ActivationTTL: 72 * time.Hour,
}

func newTokenCache(t *testing.T) *cache.Keyspace {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewCacheManager(client).Token
}

func TestActivation_SingleUse(t *testing.T) {
	tokens := NewActivationTokens(activationCfg, newTokenCache(t))
	user := &models.User{ID: 5, PasswordHash: "hash"}
	ctx := context.Background()

	token, err := tokens.Make(user)
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}

	if err := tokens.Consume(ctx, user, token); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if err := tokens.Consume(ctx, user, token); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("second Consume should fail, got %v", err)
	}
}

func TestActivation_FingerprintChanges(t *testing.T) {
	tokens := NewActivationTokens(activationCfg, cache.NewCacheManager(nil).Token)
	user := &models.User{ID: 5, PasswordHash: "hash"}

	token, err := tokens.Make(user)
	if err != nil {
		t.Fatal(err)
	}

	activated := *user
	activated.IsActive = true
	if err := tokens.Consume(context.Background(), &activated, token); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("token should die once the account is active, got %v", err)
	}

	rehashed := *user
	rehashed.PasswordHash = "other"
	if err := tokens.Consume(context.Background(), &rehashed, token); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("token should die after a password change, got %v", err)
	}

	// without redis the unchanged user still verifies
	if err := tokens.Consume(context.Background(), user, token); err != nil {
		t.Errorf("expected valid token without cache, got %v", err)
	}
}

func TestActivation_WrongUserAndExpiry(t *testing.T) {
	tokens := NewActivationTokens(activationCfg, cache.NewCacheManager(nil).Token)
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	user := &models.User{ID: 5, PasswordHash: "hash"}
	token, err := tokens.Make(user)
	if err != nil {
		t.Fatal(err)
	}

	other := &models.User{ID: 6, PasswordHash: "hash"}
	if err := tokens.Consume(context.Background(), other, token); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("token for another user should fail, got %v", err)
	}

	tokens.now = func() time.Time { return issued.Add(73 * time.Hour) }
	if err := tokens.Consume(context.Background(), user, token); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("expired token should fail, got %v", err)
	}
}

func TestActivation_SessionTokenRejected(t *testing.T) {
	tokens := NewActivationTokens(activationCfg, cache.NewCacheManager(nil).Token)
	m := NewManager(config.AuthConfig{JWTSecret: activationCfg.JWTSecret, AccessTokenTTL: time.Hour})

	access, err := m.GenerateAccessToken(5, "student")
	if err != nil {
		t.Fatal(err)
	}
	if err := tokens.Consume(context.Background(), &models.User{ID: 5}, access); !errors.Is(err, ErrActivationInvalid) {
		t.Errorf("access token must not activate, got %v", err)
	}
}
