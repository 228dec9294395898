package service

import (
	"context"
	"errors"
	"sync"

	usersrepo "parkspot/internal/users/repository"
	vehicleserrors "parkspot/internal/vehicles/errors"
	"parkspot/internal/vehicles/repository"
	"parkspot/internal/vehicles/validator"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/model"
	"parkspot/pkg/sanitizer"
)

type VehicleService interface {
	Create(ctx context.Context, vehicle *model.Vehicle, principal string) error
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, int64, error)
	Update(ctx context.Context, id string, principal string, updates *model.VehicleUpdate) (*model.Vehicle, error)
	Delete(ctx context.Context, id string, principal string) error
}

type vehicleService struct {
	repo      repository.VehicleRepository
	users     usersrepo.UserRepository
	validator *validator.VehicleValidator
	cfg       *config.Config
}

func NewVehicleService(repo repository.VehicleRepository, users usersrepo.UserRepository, v *validator.VehicleValidator, cfg *config.Config) VehicleService {
	return &vehicleService{
		repo:      repo,
		users:     users,
		validator: v,
		cfg:       cfg,
	}
}

// CanModifyVehicle reports whether the principal may mutate the vehicle:
// its owner or an administrator.
func CanModifyVehicle(principal string, vehicle *model.Vehicle, actingUser *model.User) bool {
	return vehicle.UserID == principal || (actingUser != nil && actingUser.Admin)
}

func (s *vehicleService) Create(ctx context.Context, vehicle *model.Vehicle, principal string) error {
	vehicle.Type = sanitizer.TrimAndNormalize(vehicle.Type)
	vehicle.RegistrationNumber = sanitizer.TrimAndNormalize(vehicle.RegistrationNumber)
	vehicle.Color = sanitizer.TrimAndNormalize(vehicle.Color)
	vehicle.Brand = sanitizer.TrimAndNormalize(vehicle.Brand)
	// Ownership is taken from the authenticated principal, never the body.
	vehicle.UserID = principal

	if err := s.validator.Validate(vehicle); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed", "error", err)
		return apperrors.Validation("Vehicle validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, vehicle); err != nil {
		s.cfg.Log.Error("Failed to create vehicle", "error", err)
		return apperrors.Internal("Failed to create vehicle", err)
	}

	s.cfg.Log.Info("Vehicle created", "id", vehicle.ID, "user_id", vehicle.UserID)
	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		}
		if errors.Is(err, vehicleserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid vehicle ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve vehicle", err)
	}

	return vehicle, nil
}

func (s *vehicleService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, int64, error) {
	var count int64
	var vehicles []*model.Vehicle
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count vehicles", "error", errCount)
			errCount = apperrors.Internal("Failed to count vehicles", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		vehicles, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list vehicles", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve vehicles", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return vehicles, count, nil
}

func (s *vehicleService) Update(ctx context.Context, id string, principal string, updates *model.VehicleUpdate) (*model.Vehicle, error) {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if !CanModifyVehicle(principal, existing, actingUser) {
		return nil, apperrors.Forbidden("Only the vehicle owner or an administrator may update this vehicle")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Vehicle update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Type != "" {
		merged.Type = sanitizer.TrimAndNormalize(updates.Type)
	}
	if updates.RegistrationNumber != "" {
		merged.RegistrationNumber = sanitizer.TrimAndNormalize(updates.RegistrationNumber)
	}
	if updates.Color != "" {
		merged.Color = sanitizer.TrimAndNormalize(updates.Color)
	}
	if updates.Brand != "" {
		merged.Brand = sanitizer.TrimAndNormalize(updates.Brand)
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		}
		s.cfg.Log.Error("Failed to update vehicle", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update vehicle", err)
	}

	s.cfg.Log.Info("Vehicle updated", "id", id)
	return &merged, nil
}

func (s *vehicleService) Delete(ctx context.Context, id string, principal string) error {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return err
	}
	if !CanModifyVehicle(principal, existing, actingUser) {
		return apperrors.Forbidden("Only the vehicle owner or an administrator may delete this vehicle")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Vehicle", id)
		}
		s.cfg.Log.Error("Failed to delete vehicle", "id", id, "error", err)
		return apperrors.Internal("Failed to delete vehicle", err)
	}

	s.cfg.Log.Info("Vehicle deleted", "id", id, "deleted_by", principal)
	return nil
}

func (s *vehicleService) loadTargetAndActor(ctx context.Context, id string, principal string) (*model.Vehicle, *model.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Vehicle", id)
		}
		if errors.Is(err, vehicleserrors.ErrInvalidID) {
			return nil, nil, apperrors.InvalidInput("Invalid vehicle ID format")
		}
		return nil, nil, apperrors.Internal("Failed to retrieve vehicle", err)
	}

	if existing.UserID == principal {
		return existing, nil, nil
	}

	actingUser, err := s.users.FindByID(ctx, principal)
	if err != nil {
		// A principal that cannot be resolved carries no admin rights.
		return existing, nil, nil
	}
	return existing, actingUser, nil
}
