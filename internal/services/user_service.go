package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/school-service/internal/auth"
	"github.com/SAP-F-2025/school-service/internal/authz"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/models"
	"github.com/SAP-F-2025/school-service/internal/repositories"
	"github.com/SAP-F-2025/school-service/internal/validator"
)

type userService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	validator  *validator.Validator
	engine     *authz.Engine
	publisher  events.EventPublisher
	activation *auth.ActivationTokens
	baseURL    string
}

func NewUserService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	engine *authz.Engine,
	publisher events.EventPublisher,
	activation *auth.ActivationTokens,
	baseURL string,
) UserService {
	return &userService{
		repo:       repo,
		logger:     logger,
		validator:  validator,
		engine:     engine,
		publisher:  publisher,
		activation: activation,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Register creates an inactive account and announces it so an admin can
// activate it. Announcement failures never fail the registration.
func (s *userService) Register(ctx context.Context, req *RegisterUserRequest) (*models.UserResponse, error) {
	if err := DecisionError(authz.Anonymous(), "user", "create", 0, s.engine.UserCreate(authz.Anonymous())); err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if errs := s.validator.ValidateRegister(req); errs.HasErrors() {
		return nil, errs
	}

	if errs := s.checkUnique(ctx, req.Username, req.Email); errs.HasErrors() {
		return nil, errs
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		CVPath:       trimmedOrNil(req.CV),
	}
	if req.Role != "" {
		user.Role = models.UserRole(req.Role)
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		user.Gender = &g
	}
	if req.DateOfBirth != nil {
		dob, _ := validator.ParseDate(*req.DateOfBirth)
		d := datatypes.Date(dob)
		user.DateOfBirth = &d
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			if errs := s.checkUnique(ctx, req.Username, req.Email); errs.HasErrors() {
				return nil, errs
			}
			return nil, &ConflictError{Rule: "unique", Message: "A user with that username or email already exists."}
		}
		s.logger.Error("Failed to create user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	s.announceRegistration(ctx, user)

	return models.NewUserResponse(user), nil
}

func (s *userService) announceRegistration(ctx context.Context, user *models.User) {
	token, err := s.activation.Make(user)
	if err != nil {
		s.logger.Error("Failed to create activation token", "user_id", user.ID, "error", err)
		return
	}

	event, err := events.NewEvent(events.TypeUserRegistered, events.UserRegistered{
		UserID:        user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Role:          string(user.Role),
		ActivationURL: fmt.Sprintf("%s/activate/%d/%s/", s.baseURL, user.ID, token),
	})
	if err != nil {
		s.logger.Error("Failed to build registration event", "user_id", user.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish registration event", "user_id", user.ID, "error", err)
	}
}

// Update applies a partial profile update; username and role are immutable here
func (s *userService) Update(ctx context.Context, actor authz.Actor, id uint, req *UpdateUserRequest) (*models.UserResponse, error) {
	if err := DecisionError(actor, "user", "update", id, s.engine.UserUpdate(actor, id)); err != nil {
		return nil, err
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateUserUpdate(req, user); errs.HasErrors() {
		return nil, errs
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.EqualFold(email, user.Email) {
			taken, err := s.repo.User().ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return nil, fieldError("email", "user with this email already exists.", "unique", email)
			}
		}
		user.Email = email
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		user.Gender = &g
	}
	if req.DateOfBirth != nil {
		dob, _ := validator.ParseDate(*req.DateOfBirth)
		d := datatypes.Date(dob)
		user.DateOfBirth = &d
	}
	if req.CV != nil {
		user.CVPath = trimmedOrNil(req.CV)
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, fieldError("email", "user with this email already exists.", "unique", user.Email)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id, "actor_id", actor.ID)
	return models.NewUserResponse(user), nil
}

// List returns the users visible to actor; anonymous callers see nobody
func (s *userService) List(ctx context.Context, actor authz.Actor, filters UserListFilters) (*UserListResponse, error) {
	page := filters.Pagination.normalize()
	scope := s.engine.UserScope(actor)
	if scope.Empty() {
		return &UserListResponse{Users: []*models.UserResponse{}, Page: page.Page, Size: page.Size}, nil
	}

	users, total, err := s.repo.User().List(ctx, repositories.UserFilters{
		Query:  filters.Query,
		Role:   filters.Role,
		Scope:  scope,
		Limit:  page.Size,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]*models.UserResponse, len(users))
	for i, u := range users {
		out[i] = models.NewUserResponse(u)
	}
	return &UserListResponse{Users: out, Total: total, Page: page.Page, Size: page.Size}, nil
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, id uint) (*models.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	taught := false
	if actor.Role == authz.RoleTeacher && actor.ID != id {
		_, count, err := s.repo.Enrollment().List(ctx, repositories.EnrollmentFilters{
			UserID: &id,
			Scope:  s.engine.EnrollmentScope(actor),
			Limit:  1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check enrollments: %w", err)
		}
		taught = count > 0
	}

	if err := DecisionError(actor, "user", "read", id, s.engine.UserRead(actor, id, taught)); err != nil {
		return nil, err
	}
	return models.NewUserResponse(user), nil
}

// ===== HELPERS =====

func (s *userService) getUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) checkUnique(ctx context.Context, username, email string) ValidationErrors {
	var errs ValidationErrors

	taken, err := s.repo.User().ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to check username", "error", err)
	} else if taken {
		errs = append(errs, ValidationError{Field: "username", Message: "A user with that username already exists.", Rule: "unique", Value: username})
	}

	taken, err = s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email", "error", err)
	} else if taken {
		errs = append(errs, ValidationError{Field: "email", Message: "user with this email already exists.", Rule: "unique", Value: email})
	}

	return errs
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
