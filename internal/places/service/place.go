package service

import (
	"context"
	"errors"
	"sync"

	placeserrors "parkspot/internal/places/errors"
	"parkspot/internal/places/repository"
	"parkspot/internal/places/validator"
	usersrepo "parkspot/internal/users/repository"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/model"
	"parkspot/pkg/notify"
	"parkspot/pkg/sanitizer"
)

// ReservationLister is the slice of the reservation store the place
// listing endpoint needs. Implemented by the reservations repository.
type ReservationLister interface {
	FindByParking(ctx context.Context, parkingID string, limit int, offset int64) ([]*model.Reservation, error)
	CountByParking(ctx context.Context, parkingID string) (int64, error)
}

type PlaceService interface {
	Create(ctx context.Context, place *model.Place, principal string) error
	GetByID(ctx context.Context, id string) (*model.Place, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Place, int64, error)
	Update(ctx context.Context, id string, principal string, updates *model.PlaceUpdate) (*model.Place, error)
	Delete(ctx context.Context, id string, principal string) error
	ListReservations(ctx context.Context, placeID string, principal string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type placeService struct {
	repo         repository.PlaceRepository
	users        usersrepo.UserRepository
	reservations ReservationLister
	validator    *validator.PlaceValidator
	broadcaster  notify.Broadcaster
	cfg          *config.Config
}

func NewPlaceService(
	repo repository.PlaceRepository,
	users usersrepo.UserRepository,
	reservations ReservationLister,
	v *validator.PlaceValidator,
	broadcaster notify.Broadcaster,
	cfg *config.Config,
) PlaceService {
	return &placeService{
		repo:         repo,
		users:        users,
		reservations: reservations,
		validator:    v,
		broadcaster:  broadcaster,
		cfg:          cfg,
	}
}

// CanModifyPlace reports whether the principal may update the place:
// its owner or an administrator.
func CanModifyPlace(principal string, place *model.Place, actingUser *model.User) bool {
	return place.UserID == principal || (actingUser != nil && actingUser.Admin)
}

// CanDeletePlace mirrors CanModifyPlace; deletion carries the same
// owner-or-admin gate.
func CanDeletePlace(principal string, place *model.Place, actingUser *model.User) bool {
	return CanModifyPlace(principal, place, actingUser)
}

// CanViewPlaceReservations restricts the reservation roster of a place
// to its owner or an administrator.
func CanViewPlaceReservations(principal string, place *model.Place, actingUser *model.User) bool {
	return place.UserID == principal || (actingUser != nil && actingUser.Admin)
}

func (s *placeService) Create(ctx context.Context, place *model.Place, principal string) error {
	place.Description = sanitizer.NormalizeDescription(place.Description)
	place.Type = sanitizer.TrimAndNormalize(place.Type)
	// Ownership is taken from the authenticated principal, never the body.
	place.UserID = principal

	if err := s.validator.Validate(place); err != nil {
		s.cfg.Log.Warn("Place validation failed", "error", err)
		return apperrors.Validation("Place validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, place); err != nil {
		s.cfg.Log.Error("Failed to create place", "error", err)
		return apperrors.Internal("Failed to create place", err)
	}

	s.broadcaster.Broadcast(ctx, notify.NewEvent(notify.EventPlaceCreated, notify.PlaceCreated{Place: place}))

	s.cfg.Log.Info("Place created", "id", place.ID, "user_id", place.UserID)
	return nil
}

func (s *placeService) GetByID(ctx context.Context, id string) (*model.Place, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Place ID cannot be empty")
	}

	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, placeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Place", id)
		}
		if errors.Is(err, placeserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid place ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve place", err)
	}

	return place, nil
}

func (s *placeService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Place, int64, error) {
	var count int64
	var places []*model.Place
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count places", "error", errCount)
			errCount = apperrors.Internal("Failed to count places", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		places, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list places", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve places", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return places, count, nil
}

func (s *placeService) Update(ctx context.Context, id string, principal string, updates *model.PlaceUpdate) (*model.Place, error) {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	if !CanModifyPlace(principal, existing, actingUser) {
		return nil, apperrors.Forbidden("Only the place owner or an administrator may update this place")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Place update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := *existing
	if updates.Description != "" {
		merged.Description = sanitizer.NormalizeDescription(updates.Description)
	}
	if updates.Type != "" {
		merged.Type = sanitizer.TrimAndNormalize(updates.Type)
	}
	if updates.Geolocation != nil {
		merged.Geolocation = updates.Geolocation
	}
	if updates.Picture != "" {
		merged.Picture = updates.Picture
	}
	if updates.AvailabilityDate != nil {
		merged.AvailabilityDate = updates.AvailabilityDate
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, placeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Place", id)
		}
		s.cfg.Log.Error("Failed to update place", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update place", err)
	}

	s.cfg.Log.Info("Place updated", "id", id)
	return &merged, nil
}

func (s *placeService) Delete(ctx context.Context, id string, principal string) error {
	existing, actingUser, err := s.loadTargetAndActor(ctx, id, principal)
	if err != nil {
		return err
	}
	if !CanDeletePlace(principal, existing, actingUser) {
		return apperrors.Forbidden("Only the place owner or an administrator may delete this place")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, placeserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Place", id)
		}
		s.cfg.Log.Error("Failed to delete place", "id", id, "error", err)
		return apperrors.Internal("Failed to delete place", err)
	}

	s.cfg.Log.Info("Place deleted", "id", id, "deleted_by", principal)
	return nil
}

func (s *placeService) ListReservations(ctx context.Context, placeID string, principal string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	place, actingUser, err := s.loadTargetAndActor(ctx, placeID, principal)
	if err != nil {
		return nil, 0, err
	}
	if !CanViewPlaceReservations(principal, place, actingUser) {
		return nil, 0, apperrors.Forbidden("Only the place owner or an administrator may list its reservations")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.reservations.CountByParking(ctx, placeID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count place reservations", "place_id", placeID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.reservations.FindByParking(ctx, placeID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list place reservations", "place_id", placeID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

func (s *placeService) loadTargetAndActor(ctx context.Context, id string, principal string) (*model.Place, *model.User, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, placeserrors.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Place", id)
		}
		if errors.Is(err, placeserrors.ErrInvalidID) {
			return nil, nil, apperrors.InvalidInput("Invalid place ID format")
		}
		return nil, nil, apperrors.Internal("Failed to retrieve place", err)
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
