package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
)

type activationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	tokens    *auth.ActivationTokens
	publisher events.EventPublisher
}

func NewActivationService(repo repositories.Repository, logger *slog.Logger, tokens *auth.ActivationTokens, publisher events.EventPublisher) ActivationService {
	return &activationService{
		repo:      repo,
		logger:    logger,
		tokens:    tokens,
		publisher: publisher,
	}
}

// Activate confirms an activation link. Every failure looks the same to the caller.
func (s *activationService) Activate(ctx context.Context, uid, token string) error {
	id, err := strconv.ParseUint(uid, 10, 64)
	if err != nil {
		return ErrActivationInvalid
	}

	user, err := s.repo.User().GetByID(ctx, uint(id))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrActivationInvalid
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.tokens.Consume(ctx, user, token); err != nil {
		if errors.Is(err, auth.ErrActivationInvalid) {
			s.logger.Info("Activation link rejected", "user_id", user.ID)
			return ErrActivationInvalid
		}
		return err
	}

	return s.activate(ctx, user)
}

func (s *activationService) ActivateByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.repo.User().GetByUsername(ctx, identifier)
	if repositories.IsNotFoundError(err) {
		user, err = s.repo.User().GetByEmail(ctx, identifier)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("user with identifier %q: %w", identifier, ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.activate(ctx, user); err != nil {
		return nil, err
	}
	user.IsActive = true
	return user, nil
}

func (s *activationService) activate(ctx context.Context, user *models.User) error {
	if err := s.repo.User().SetActive(ctx, user.ID, true); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to activate user: %w", err)
	}
	s.logger.Info("User activated", "user_id", user.ID)

	event, err := events.NewEvent(events.TypeUserActivated, events.UserActivated{UserID: user.ID, Username: user.Username})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Error("Failed to publish activation event", "user_id", user.ID, "error", err)
	}
	return nil
}
