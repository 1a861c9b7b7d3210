package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	userserrors "roomly/internal/users/errors"
	"roomly/internal/users/repository"
	"roomly/internal/users/validator"
	"roomly/pkg/auth"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
)

type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

type UserService interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	Update(ctx context.Context, id string, update *model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) error

	// Find returns nil, nil when the user does not exist.
	Find(ctx context.Context, id string) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	phones    *sanitizer.PhoneNormalizer
	tokens    TokenIssuer
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	phones *sanitizer.PhoneNormalizer,
	tokens TokenIssuer,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		phones:    phones,
		tokens:    tokens,
		cfg:       cfg,
	}
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	s.phones.SanitizeLogin(req)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, apperrors.Unauthorized("Invalid ID number or phone")
	}

	user, err := s.repo.FindByCredentials(ctx, req.IDNumber, req.Phone)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			s.cfg.Log.Warn("Login rejected", "id_number", req.IDNumber)
			return nil, apperrors.Unauthorized("Invalid ID number or phone")
		}
		return nil, s.translate(err, req.IDNumber)
	}

	token, err := s.tokens.Issue(auth.Principal{
		UserID:   user.ID,
		IDNumber: user.IDNumber,
		Role:     user.Role,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &model.LoginResponse{AccessToken: token, Role: user.Role}, nil
}

func (s *userService) Create(ctx context.Context, user *model.User) error {
	s.phones.SanitizeUser(user)
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "id_number", user.IDNumber, "error", err)
		return err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return s.translate(err, user.IDNumber)
	}

	s.cfg.Log.Info("User created successfully", "user_id", user.ID, "role", user.Role)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}
	return user, nil
}

func (s *userService) Find(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, nil
		}
		return nil, fmt.Errorf("user lookup %s: %w", id, err)
	}
	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var (
		wg                sync.WaitGroup
		users             []*model.User
		count             int64
		findErr, countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		users, findErr = s.repo.FindAll(ctx, limit, offset)
	}()
	go func() {
		defer wg.Done()
		count, countErr = s.repo.Count(ctx)
	}()
	wg.Wait()

	if findErr != nil {
		return nil, 0, apperrors.Internal("Failed to list users", findErr)
	}
	if countErr != nil {
		return nil, 0, apperrors.Internal("Failed to count users", countErr)
	}
	return users, count, nil
}

func (s *userService) Update(ctx context.Context, id string, update *model.UserUpdate) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID is required")
	}

	s.phones.SanitizeUserUpdate(update)
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("User update validation failed", "user_id", id, "error", err)
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id)
	}

	merged := update.Apply(current)
	if err := s.validator.Validate(merged); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, merged); err != nil {
		return nil, s.translate(err, id)
	}

	s.cfg.Log.Info("User updated successfully", "user_id", id)
	return merged, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return s.translate(err, id)
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return apperrors.Internal("Failed to count users", err)
	}
	if count <= 1 {
		return apperrors.InvalidInput("Cannot delete the last remaining user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id)
	}

	s.cfg.Log.Info("User deleted successfully", "user_id", id)
	return nil
}

func (s *userService) translate(err error, key string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound), errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("User", key)
	case errors.Is(err, userserrors.ErrDuplicate):
		return apperrors.Conflict("A user with this ID number or phone already exists")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("User store did not respond in time")
	default:
		s.cfg.Log.Error("User store failure", "key", key, "error", err)
		return apperrors.Internal("User store failure", err)
	}
}
