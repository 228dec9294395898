package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	userserrors "parkspot/internal/users/errors"
	"parkspot/internal/users/repository"
	"parkspot/internal/users/validator"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/model"
	"parkspot/pkg/sanitizer"
)

type UserService interface {
	Register(ctx context.Context, user *model.User, password string) error
	Authenticate(ctx context.Context, userName, password string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	Update(ctx context.Context, id string, principal string, updates *model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string, principal string) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, v *validator.UserValidator, cfg *config.Config) UserService {
	return &userService{
		repo:      repo,
		validator: v,
		cfg:       cfg,
	}
}

// CanModifyUser reports whether the principal may mutate the target user:
// the account itself or an administrator.
func CanModifyUser(principal string, target *model.User, actingUser *model.User) bool {
	return target.ID == principal || (actingUser != nil && actingUser.Admin)
}

func (s *userService) Register(ctx context.Context, user *model.User, password string) error {
	user.FirstName = sanitizer.NormalizeName(user.FirstName)
	user.LastName = sanitizer.NormalizeName(user.LastName)
	user.UserName = sanitizer.NormalizeUserName(user.UserName)
	// The administrative flag is never caller-controlled.
	user.Admin = false

	if password == "" {
		return apperrors.InvalidInput("Password cannot be empty")
	}
	if len(password) < 8 || len(password) > 72 {
		return apperrors.InvalidInput("Password must be between 8 and 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	user.Password = string(hash)

	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUserName) {
			return apperrors.Conflict("Username is already taken")
		}
		s.cfg.Log.Error("Failed to create user", "error", err)
		return apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered", "id", user.ID, "user_name", user.UserName)
	return nil
}

func (s *userService) Authenticate(ctx context.Context, userName, password string) (*model.User, error) {
	userName = sanitizer.NormalizeUserName(userName)
	if userName == "" || password == "" {
		return nil, apperrors.InvalidInput("Username and password are required")
	}

	user, err := s.repo.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			// Indistinguishable from a bad password on purpose.
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, apperrors.Internal("Failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return users, count, nil
}

func (s *userService) Update(ctx context.Context, id string, principal string, updates *model.UserUpdate) (*model.User, error) {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if !CanModifyUser(principal, existing, actingUser) {
		return nil, apperrors.Forbidden("Only the account owner or an administrator may update this user")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("User update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.FirstName != "" {
		merged.FirstName = sanitizer.NormalizeName(updates.FirstName)
	}
	if updates.LastName != "" {
		merged.LastName = sanitizer.NormalizeName(updates.LastName)
	}
	if updates.UserName != "" {
		merged.UserName = sanitizer.NormalizeUserName(updates.UserName)
	}
	if updates.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(updates.Password), s.cfg.BcryptCost)
		if err != nil {
			return nil, apperrors.Internal("Failed to hash password", err)
		}
		merged.Password = string(hash)
	}

	if err := s.validator.Validate(&merged); err != nil {
		return nil, apperrors.Validation("User validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateUserName) {
			return nil, apperrors.Conflict("Username is already taken")
		}
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("User", id)
		}
		s.cfg.Log.Error("Failed to update user", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update user", err)
	}

	s.cfg.Log.Info("User updated", "id", id)
	return &merged, nil
}

func (s *userService) Delete(ctx context.Context, id string, principal string) error {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return err
	}
	if !CanModifyUser(principal, existing, actingUser) {
		return apperrors.Forbidden("Only the account owner or an administrator may delete this user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("User", id)
		}
		s.cfg.Log.Error("Failed to delete user", "id", id, "error", err)
		return apperrors.Internal("Failed to delete user", err)
	}

	s.cfg.Log.Info("User deleted", "id", id, "deleted_by", principal)
	return nil
}

// loadTargetAndActor resolves the target user (NotFound before any
// authorization decision) and, when the principal differs from the
// target, the acting user whose live admin flag gates the operation.
func (s *userService) loadTargetAndActor(ctx context.Context, id string, principal string) (*model.User, *model.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("User", id)
		}
		if errors.Is(err, userserrors.ErrInvalidID) {
			return nil, nil, apperrors.InvalidInput("Invalid user ID format")
		}
		return nil, nil, apperrors.Internal("Failed to retrieve user", err)
	}

	if existing.ID == principal {
		return existing, existing, nil
	}

	actingUser, err := s.repo.FindByID(ctx, principal)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return existing, nil, nil
		}
		return nil, nil, apperrors.Internal("Failed to retrieve acting user", err)
	}

	return existing, actingUser, nil
}
