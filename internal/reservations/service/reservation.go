package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	placeserrors "parkspot/internal/places/errors"
	placesrepo "parkspot/internal/places/repository"
	reservationserrors "parkspot/internal/reservations/errors"
	"parkspot/internal/reservations/repository"
	"parkspot/internal/reservations/validator"
	usersrepo "parkspot/internal/users/repository"
	vehicleserrors "parkspot/internal/vehicles/errors"
	vehiclesrepo "parkspot/internal/vehicles/repository"
	"parkspot/pkg/config"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/model"
	"parkspot/pkg/notify"
)

// ReminderScheduler is the slice of the notification scheduler the
// reservation lifecycle drives. Satisfied by *notify.Scheduler.
type ReminderScheduler interface {
	Schedule(key string, at time.Time, event notify.Event)
	Cancel(key string)
}

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation, principal string) error
	GetByID(ctx context.Context, id string) (*model.ReservationDetail, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, id string, principal string, updates *model.ReservationUpdate) (*model.Reservation, error)
	Delete(ctx context.Context, id string, principal string) error
}

type reservationService struct {
	repo        repository.ReservationRepository
	lockRepo    repository.ReservationLockRepository
	places      placesrepo.PlaceRepository
	vehicles    vehiclesrepo.VehicleRepository
	users       usersrepo.UserRepository
	validator   *validator.ReservationValidator
	broadcaster notify.Broadcaster
	scheduler   ReminderScheduler
	cfg         *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	places placesrepo.PlaceRepository,
	vehicles vehiclesrepo.VehicleRepository,
	users usersrepo.UserRepository,
	v *validator.ReservationValidator,
	broadcaster notify.Broadcaster,
	scheduler ReminderScheduler,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:        repo,
		lockRepo:    lockRepo,
		places:      places,
		vehicles:    vehicles,
		users:       users,
		validator:   v,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		cfg:         cfg,
	}
}

// CanModifyReservation reports whether the principal may mutate the
// reservation. Only the renter qualifies; the place owner holds no
// special privilege over the reservation itself.
func CanModifyReservation(principal string, reservation *model.Reservation) bool {
	return reservation.RenterUserID == principal
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation, principal string) error {
	if reservation.ParkingID == "" || reservation.VehicleID == "" ||
		reservation.StartDate.IsZero() || reservation.EndDate.IsZero() {
		return apperrors.InvalidInput("parkingId, startDate, endDate and vehiculeId are required")
	}

	// The store assigns the ID. A client-supplied one would be excluded
	// from the overlap check as if it were the reservation's own.
	reservation.ID = ""
	reservation.RenterUserID = principal
	reservation.Status = model.StatusInProcess

	place, err := s.places.FindByID(ctx, reservation.ParkingID)
	if err != nil {
		if errors.Is(err, placeserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Place", reservation.ParkingID)
		}
		if errors.Is(err, placeserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid place ID format")
		}
		return apperrors.Internal("Failed to retrieve place", err)
	}

	// Owner is snapshotted from the place at admission time and never
	// re-derived afterwards.
	reservation.OwnerUserID = place.UserID

	if err := s.validate(reservation); err != nil {
		return err
	}

	lockID, err := s.acquirePlaceLock(ctx, reservation.ParkingID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releasePlaceLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, reservation); err != nil {
			return err
		}
		if err := s.verifyVehicleOwnership(sessCtx, reservation.VehicleID, principal); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return err
	}

	s.broadcaster.Broadcast(ctx, notify.NewEvent(notify.EventReservationCreated, notify.ReservationCreated{
		Reservation: reservation,
		OwnerName:   s.ownerName(ctx, reservation.OwnerUserID),
	}))
	s.scheduleReminder(reservation)

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"parking_id", reservation.ParkingID,
		"renter_user_id", reservation.RenterUserID,
		"start_date", reservation.StartDate,
	)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.ReservationDetail, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return s.populate(ctx, reservation), nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
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

func (s *reservationService) Update(ctx context.Context, id string, principal string, updates *model.ReservationUpdate) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	if !CanModifyReservation(principal, existing) {
		return nil, apperrors.Forbidden("Only the renter may update this reservation")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Reservation update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.merge(existing, updates)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if updates.VehicleID != "" && updates.VehicleID != existing.VehicleID {
		if err := s.verifyVehicleOwnership(ctx, merged.VehicleID, principal); err != nil {
			return nil, err
		}
	}

	datesChanged := !merged.StartDate.Equal(existing.StartDate) || !merged.EndDate.Equal(existing.EndDate)
	if datesChanged {
		lockID, err := s.acquirePlaceLock(ctx, merged.ParkingID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if releaseErr := s.releasePlaceLock(ctx, lockID); releaseErr != nil {
				s.cfg.Log.Warn("Failed to release reservation lock", "lock_id", lockID, "error", releaseErr)
			}
		}()

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.verifyNoOverlap(sessCtx, merged); err != nil {
				return err
			}
			if err := s.repo.Update(sessCtx, id, merged); err != nil {
				return apperrors.Internal("Failed to update reservation", err)
			}
			return nil
		})
		if err != nil {
			s.cfg.Log.Error("Failed to update reservation", "id", id, "error", err)
			return nil, err
		}
	} else {
		if err := s.repo.Update(ctx, id, merged); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Reservation", id)
			}
			s.cfg.Log.Error("Failed to update reservation", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update reservation", err)
		}
	}

	if !merged.EndDate.Equal(existing.EndDate) {
		s.scheduleReminder(merged)
	}

	s.cfg.Log.Info("Reservation updated", "id", id)
	return merged, nil
}

func (s *reservationService) Delete(ctx context.Context, id string, principal string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid reservation ID format")
		}
		return apperrors.Internal("Failed to retrieve reservation", err)
	}
	if !CanModifyReservation(principal, existing) {
		return apperrors.Forbidden("Only the renter may delete this reservation")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		s.cfg.Log.Error("Failed to delete reservation", "id", id, "error", err)
		return apperrors.Internal("Failed to delete reservation", err)
	}

	// The pending reminder dies with the reservation.
	s.scheduler.Cancel(reminderKey(id))

	s.cfg.Log.Info("Reservation deleted", "id", id, "deleted_by", principal)
	return nil
}

// --- Helpers ---

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) merge(existing *model.Reservation, updates *model.ReservationUpdate) *model.Reservation {
	merged := *existing

	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if updates.VehicleID != "" {
		merged.VehicleID = updates.VehicleID
	}
	if updates.Status != "" {
		merged.Status = updates.Status
	}

	return &merged
}

// verifyNoOverlap rejects the reservation when any existing reservation
// of the same place intersects its closed interval. Boundary-touching
// dates conflict.
func (s *reservationService) verifyNoOverlap(ctx context.Context, reservation *model.Reservation) error {
	existing, err := s.repo.FindOverlapping(ctx, reservation.ParkingID, reservation.StartDate, reservation.EndDate, reservation.ID)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}
	if len(existing) > 0 {
		first := existing[0]
		return apperrors.Conflict(fmt.Sprintf(
			"A reservation already exists for these dates (%s - %s)",
			first.StartDate.Format(time.RFC3339),
			first.EndDate.Format(time.RFC3339),
		))
	}
	return nil
}

func (s *reservationService) verifyVehicleOwnership(ctx context.Context, vehicleID, principal string) error {
	vehicle, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) || errors.Is(err, vehicleserrors.ErrInvalidID) {
			return apperrors.Forbidden("Vehicle does not exist or does not belong to you")
		}
		return apperrors.Internal("Failed to retrieve vehicle", err)
	}
	if vehicle.UserID != principal {
		return apperrors.Forbidden("Vehicle does not exist or does not belong to you")
	}
	return nil
}

// acquirePlaceLock takes the per-place advisory lock guarding the
// conflict-check-then-insert window. A concurrent holder surfaces as a
// duplicate key error, reported as Conflict.
func (s *reservationService) acquirePlaceLock(ctx context.Context, parkingID string) (string, error) {
	lockID := fmt.Sprintf("reservation_lock_%s", parkingID)

	lock := &model.ReservationLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.LockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This place is currently being reserved by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire reservation lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releasePlaceLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *reservationService) scheduleReminder(reservation *model.Reservation) {
	at := reservation.EndDate.Add(-s.cfg.ReminderLead)
	s.scheduler.Schedule(reminderKey(reservation.ID), at,
		notify.NewEvent(notify.EventReservationEndingSoon, notify.ReservationEndingSoon{Reservation: reservation}))
}

func reminderKey(reservationID string) string {
	return "reservation:" + reservationID
}

func (s *reservationService) ownerName(ctx context.Context, ownerID string) string {
	owner, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve reservation owner", "owner_user_id", ownerID, "error", err)
		return ""
	}
	return owner.UserName
}

// populate resolves the reservation's weak references. Lookups are
// best-effort: a dangling reference leaves its field nil.
func (s *reservationService) populate(ctx context.Context, reservation *model.Reservation) *model.ReservationDetail {
	detail := &model.ReservationDetail{Reservation: *reservation}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		if place, err := s.places.FindByID(ctx, reservation.ParkingID); err == nil {
			detail.Place = place
		}
	}()
	go func() {
		defer wg.Done()
		if vehicle, err := s.vehicles.FindByID(ctx, reservation.VehicleID); err == nil {
			detail.Vehicle = vehicle
		}
	}()
	go func() {
		defer wg.Done()
		if renter, err := s.users.FindByID(ctx, reservation.RenterUserID); err == nil {
			detail.Renter = renter
		}
	}()
	go func() {
		defer wg.Done()
		if owner, err := s.users.FindByID(ctx, reservation.OwnerUserID); err == nil {
			detail.Owner = owner
		}
	}()

	wg.Wait()
	return detail
}
