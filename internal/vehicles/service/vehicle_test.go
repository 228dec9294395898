package service

import (
	"context"
	"io"
	"testing"

	userserrors "parkspot/internal/users/errors"
	usersrepo "parkspot/internal/users/repository"
	vehicleserrors "parkspot/internal/vehicles/errors"
	"parkspot/internal/vehicles/validator"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/logger"
	"parkspot/pkg/model"
)

const (
	ownerID    = "64f1b2c3d4e5f6a7b8c9d0e1"
	adminID    = "64f1b2c3d4e5f6a7b8c9d0e2"
	strangerID = "64f1b2c3d4e5f6a7b8c9d0e3"
	vehicleID  = "64f1b2c3d4e5f6a7b8c9d0a1"
)

type fakeVehicleRepo struct {
	createFn   func(ctx context.Context, vehicle *model.Vehicle) error
	findByIDFn func(ctx context.Context, id string) (*model.Vehicle, error)
	findAllFn  func(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error)
	countFn    func(ctx context.Context) (int64, error)
	updateFn   func(ctx context.Context, id string, vehicle *model.Vehicle) error
	deleteFn   func(ctx context.Context, id string) error
}

func (f *fakeVehicleRepo) Create(ctx context.Context, vehicle *model.Vehicle) error {
	return f.createFn(ctx, vehicle)
}

func (f *fakeVehicleRepo) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeVehicleRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	return f.findAllFn(ctx, limit, offset)
}

func (f *fakeVehicleRepo) Count(ctx context.Context) (int64, error) {
	return f.countFn(ctx)
}

func (f *fakeVehicleRepo) Update(ctx context.Context, id string, vehicle *model.Vehicle) error {
	return f.updateFn(ctx, id, vehicle)
}

func (f *fakeVehicleRepo) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

type fakeUserLookup struct {
	usersrepo.UserRepository
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (f *fakeUserLookup) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f.findByIDFn(ctx, id)
}

func newTestVehicleService(repo *fakeVehicleRepo, users *fakeUserLookup) VehicleService {
	cfg := &config.Config{Log: logger.New(logger.Config{Output: io.Discard})}
	if users == nil {
		users = &fakeUserLookup{findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			if id == adminID {
				return &model.User{ID: adminID, Admin: true}, nil
			}
			return &model.User{ID: id}, nil
		}}
	}
	return NewVehicleService(repo, users, validator.NewVehicleValidator(cfg.Log), cfg)
}

func TestCreateStampsOwnership(t *testing.T) {
	var stored *model.Vehicle
	repo := &fakeVehicleRepo{
		createFn: func(_ context.Context, vehicle *model.Vehicle) error {
			vehicle.ID = vehicleID
			stored = vehicle
			return nil
		},
	}
	svc := newTestVehicleService(repo, nil)

	vehicle := &model.Vehicle{
		Type:               "car",
		RegistrationNumber: "AB-123-CD",
		Color:              "blue",
		Brand:              "Renault",
		UserID:             strangerID,
	}
	if err := svc.Create(context.Background(), vehicle, ownerID); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if stored.UserID != ownerID {
		t.Errorf("expected ownership from the principal, got %q", stored.UserID)
	}
}

func TestUpdateOwnerOnly(t *testing.T) {
	repo := &fakeVehicleRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Vehicle, error) {
			if id != vehicleID {
				return nil, vehicleserrors.ErrNotFound
			}
			return &model.Vehicle{
				ID:                 vehicleID,
				Type:               "car",
				RegistrationNumber: "AB-123-CD",
				Color:              "blue",
				Brand:              "Renault",
				UserID:             ownerID,
			}, nil
		},
		updateFn: func(context.Context, string, *model.Vehicle) error { return nil },
	}
	svc := newTestVehicleService(repo, nil)
	updates := &model.VehicleUpdate{Color: "red"}

	updated, err := svc.Update(context.Background(), vehicleID, ownerID, updates)
	if err != nil {
		t.Fatalf("owner update should succeed, got %v", err)
	}
	if updated.Color != "red" {
		t.Errorf("expected merged color, got %q", updated.Color)
	}

	if _, err := svc.Update(context.Background(), vehicleID, adminID, updates); err != nil {
		t.Errorf("admin update should succeed, got %v", err)
	}

	_, err = svc.Update(context.Background(), vehicleID, strangerID, updates)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Errorf("stranger update should be forbidden, got %v", err)
	}
}

func TestDeleteUnknownVehicleIsNotFound(t *testing.T) {
	repo := &fakeVehicleRepo{
		findByIDFn: func(context.Context, string) (*model.Vehicle, error) {
			return nil, vehicleserrors.ErrNotFound
		},
	}
	users := &fakeUserLookup{findByIDFn: func(context.Context, string) (*model.User, error) {
		return nil, userserrors.ErrNotFound
	}}
	svc := newTestVehicleService(repo, users)

	err := svc.Delete(context.Background(), vehicleID, strangerID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 404 {
		t.Errorf("expected 404 for unknown vehicle, got %v", err)
	}
}
