package service

import (
	"context"
	"io"
	"testing"

	"golang.org/x/crypto/bcrypt"

	userserrors "parkspot/internal/users/errors"
	"parkspot/internal/users/validator"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/logger"
	"parkspot/pkg/model"
)

type fakeUserRepo struct {
	createFn         func(ctx context.Context, user *model.User) error
	findByIDFn       func(ctx context.Context, id string) (*model.User, error)
	findByUserNameFn func(ctx context.Context, userName string) (*model.User, error)
	findAllFn        func(ctx context.Context, limit int, offset int64) ([]*model.User, error)
	countFn          func(ctx context.Context) (int64, error)
	updateFn         func(ctx context.Context, id string, user *model.User) error
	deleteFn         func(ctx context.Context, id string) error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeUserRepo) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	return f.findByUserNameFn(ctx, userName)
}

func (f *fakeUserRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	return f.findAllFn(ctx, limit, offset)
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return f.countFn(ctx)
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, user *model.User) error {
	return f.updateFn(ctx, id, user)
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	return f.deleteFn(ctx, id)
}

func testConfig() *config.Config {
	return &config.Config{
		BcryptCost: bcrypt.MinCost,
		Log:        logger.New(logger.Config{Output: io.Discard}),
	}
}

func newTestUserService(repo *fakeUserRepo) UserService {
	cfg := testConfig()
	return NewUserService(repo, validator.NewUserValidator(cfg.Log), cfg)
}

func TestRegisterHashesPasswordAndStripsAdmin(t *testing.T) {
	var stored *model.User
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			user.ID = "u1"
			stored = user
			return nil
		},
	}
	svc := newTestUserService(repo)

	user := &model.User{
		Admin:     true,
		FirstName: "  Alice ",
		LastName:  "Martin",
		UserName:  "Alice.M",
	}
	if err := svc.Register(context.Background(), user, "s3cret-password"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected user to be persisted")
	}
	if stored.Admin {
		t.Error("admin flag must not be caller controlled")
	}
	if stored.UserName != "alice.m" {
		t.Errorf("expected normalized username, got %q", stored.UserName)
	}
	if stored.Password == "s3cret-password" {
		t.Error("password must be hashed before persistence")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret-password")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestUserService(&fakeUserRepo{})

	err := svc.Register(context.Background(), &model.User{
		FirstName: "Alice",
		LastName:  "Martin",
		UserName:  "alice",
	}, "short")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 400 {
		t.Fatalf("expected 400 for short password, got %v", err)
	}
}

func TestRegisterDuplicateUserNameIsConflict(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(context.Context, *model.User) error {
			return userserrors.ErrDuplicateUserName
		},
	}
	svc := newTestUserService(repo)

	err := svc.Register(context.Background(), &model.User{
		FirstName: "Alice",
		LastName:  "Martin",
		UserName:  "alice",
	}, "s3cret-password")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 for duplicate username, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo := &fakeUserRepo{
		findByUserNameFn: func(_ context.Context, userName string) (*model.User, error) {
			if userName != "alice" {
				return nil, userserrors.ErrNotFound
			}
			return &model.User{ID: "u1", UserName: "alice", Password: string(hash)}, nil
		},
	}
	svc := newTestUserService(repo)

	user, err := svc.Authenticate(context.Background(), "Alice", "s3cret-password")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("expected user u1, got %q", user.ID)
	}

	// Wrong password and unknown user must be indistinguishable.
	_, badPass := svc.Authenticate(context.Background(), "alice", "wrong-password")
	_, noUser := svc.Authenticate(context.Background(), "bob", "s3cret-password")
	for name, err := range map[string]error{"bad password": badPass, "unknown user": noUser} {
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.HTTPStatus != 401 {
			t.Errorf("%s: expected 401, got %v", name, err)
		} else if appErr.Message != "Invalid credentials" {
			t.Errorf("%s: expected generic message, got %q", name, appErr.Message)
		}
	}
}

func TestUpdateAuthorization(t *testing.T) {
	const (
		targetID = "64f1b2c3d4e5f6a7b8c9d0e1"
		adminID  = "64f1b2c3d4e5f6a7b8c9d0e2"
		otherID  = "64f1b2c3d4e5f6a7b8c9d0e3"
	)
	target := &model.User{ID: targetID, FirstName: "Alice", LastName: "Martin", UserName: "alice", Password: "x"}
	admin := &model.User{ID: adminID, Admin: true, FirstName: "Root", LastName: "Admin", UserName: "root", Password: "x"}
	other := &model.User{ID: otherID, FirstName: "Bob", LastName: "Stone", UserName: "bobby", Password: "x"}

	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			switch id {
			case targetID:
				u := *target
				return &u, nil
			case adminID:
				u := *admin
				return &u, nil
			case otherID:
				u := *other
				return &u, nil
			}
			return nil, userserrors.ErrNotFound
		},
		updateFn: func(context.Context, string, *model.User) error { return nil },
	}
	svc := newTestUserService(repo)
	updates := &model.UserUpdate{FirstName: "Alicia"}

	if _, err := svc.Update(context.Background(), targetID, targetID, updates); err != nil {
		t.Errorf("owner update should succeed, got %v", err)
	}
	if _, err := svc.Update(context.Background(), targetID, adminID, updates); err != nil {
		t.Errorf("admin update should succeed, got %v", err)
	}

	_, err := svc.Update(context.Background(), targetID, otherID, updates)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Errorf("stranger update should be forbidden, got %v", err)
	}

	_, err = svc.Update(context.Background(), "64f1b2c3d4e5f6a7b8c9d0ff", otherID, updates)
	appErr = apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 404 {
		t.Errorf("missing target should be 404 before authorization, got %v", err)
	}
}

func TestDeleteForbiddenForStranger(t *testing.T) {
	repo := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
		deleteFn: func(context.Context, string) error { return nil },
	}
	svc := newTestUserService(repo)

	if err := svc.Delete(context.Background(), "u1", "u1"); err != nil {
		t.Errorf("owner delete should succeed, got %v", err)
	}
	err := svc.Delete(context.Background(), "u1", "u2")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Errorf("stranger delete should be forbidden, got %v", err)
	}
}
