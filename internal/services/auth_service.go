package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

// ExternalVerifier validates bearer tokens from an external identity provider
type ExternalVerifier interface {
	Verify(token string) (*auth.ExternalIdentity, error)
}

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	tokens    *auth.Manager
	external  ExternalVerifier
}

// NewAuthService builds the token issuer; external may be nil
func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, tokens *auth.Manager, external ExternalVerifier) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		tokens:    tokens,
		external:  external,
	}
}

func (s *authService) Login(ctx context.Context, req *TokenRequest) (*models.TokenPair, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.repo.User().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) || !user.IsActive {
		s.logger.Info("Login rejected", "user_id", user.ID, "active", user.IsActive)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

func (s *authService) Refresh(ctx context.Context, req *RefreshRequest) (*models.TokenPair, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	claims, err := s.tokens.ParseRefreshToken(req.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.TokenPair{Access: access}, nil
}

// Authenticate accepts local access tokens and, when configured, tokens
// from the external provider mapped to a local user by username then email
func (s *authService) Authenticate(ctx context.Context, bearer string) (*models.User, error) {
	claims, err := s.tokens.ParseAccessToken(bearer)
	if err == nil {
		return s.activeUser(ctx, claims.UserID)
	}
	if s.external == nil || errors.Is(err, auth.ErrTokenExpired) {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	identity, extErr := s.external.Verify(bearer)
	if extErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, extErr)
	}

	user, err := s.lookupIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *authService) activeUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *authService) lookupIdentity(ctx context.Context, identity *auth.ExternalIdentity) (*models.User, error) {
	if identity.Username != "" {
		user, err := s.repo.User().GetByUsername(ctx, identity.Username)
		if err == nil {
			return user, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
	}
	if identity.Email != "" {
		user, err := s.repo.User().GetByEmail(ctx, identity.Email)
		if err == nil {
			return user, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
	}
	return nil, ErrUnauthorized
}
