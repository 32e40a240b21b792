package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/school-service/internal/cache"
	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/models"
)

var ErrActivationInvalid = errors.New("activation link is invalid or expired")

const activationAudience = "activation"

type activationClaims struct {
	UserID      uint   `json:"uid"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ActivationTokens issues single-use account activation tokens. A token is
// bound to the user's active flag and password hash, so it stops verifying
// once either changes.
type ActivationTokens struct {
	secret []byte
	ttl    time.Duration
	spent  *cache.Keyspace
	now    func() time.Time
}

func NewActivationTokens(cfg config.AuthConfig, spent *cache.Keyspace) *ActivationTokens {
	return &ActivationTokens{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.ActivationTTL,
		spent:  spent,
		now:    time.Now,
	}
}

// Make returns a token for user valid for the configured TTL
func (a *ActivationTokens) Make(user *models.User) (string, error) {
	now := a.now()
	claims := activationClaims{
		UserID:      user.ID,
		Fingerprint: a.fingerprint(user),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{activationAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Issuer:    issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign activation token: %w", err)
	}
	return token, nil
}

// check verifies token against the current state of user without consuming it
func (a *ActivationTokens) check(user *models.User, tokenString string) (*activationClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &activationClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrActivationInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithAudience(activationAudience), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, ErrActivationInvalid
	}

	claims, ok := token.Claims.(*activationClaims)
	if !ok || !token.Valid || claims.UserID != user.ID {
		return nil, ErrActivationInvalid
	}
	if !hmac.Equal([]byte(claims.Fingerprint), []byte(a.fingerprint(user))) {
		return nil, ErrActivationInvalid
	}
	return claims, nil
}

// Consume verifies token and records it as spent. Without redis the
// fingerprint alone makes the token single-use.
func (a *ActivationTokens) Consume(ctx context.Context, user *models.User, tokenString string) error {
	claims, err := a.check(user, tokenString)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(a.now())
	stored, err := a.spent.SetNX(ctx, "spent:"+claims.ID, "1", ttl)
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotAvailable) {
			return nil
		}
		return fmt.Errorf("failed to record activation token: %w", err)
	}
	if !stored {
		return ErrActivationInvalid
	}
	return nil
}

func (a *ActivationTokens) fingerprint(user *models.User) string {
	mac := hmac.New(sha256.New, a.secret)
	fmt.Fprintf(mac, "%d|%t|%s", user.ID, user.IsActive, user.PasswordHash)
	return hex.EncodeToString(mac.Sum(nil))[:32]
}
