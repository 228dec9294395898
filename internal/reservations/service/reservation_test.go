package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	placeserrors "parkspot/internal/places/errors"
	placesrepo "parkspot/internal/places/repository"
	reservationserrors "parkspot/internal/reservations/errors"
	"parkspot/internal/reservations/validator"
	usersrepo "parkspot/internal/users/repository"
	vehicleserrors "parkspot/internal/vehicles/errors"
	vehiclesrepo "parkspot/internal/vehicles/repository"
	"parkspot/pkg/config"
	mongotx "parkspot/pkg/db/mongo"
	apperrors "parkspot/pkg/errors"
	"parkspot/pkg/logger"
	"parkspot/pkg/model"
	"parkspot/pkg/notify"
)

const (
	ownerID    = "64f1b2c3d4e5f6a7b8c9d0e1"
	renterID   = "64f1b2c3d4e5f6a7b8c9d0e2"
	strangerID = "64f1b2c3d4e5f6a7b8c9d0e3"
	placeID    = "64f1b2c3d4e5f6a7b8c9d0b1"
	vehicleID  = "64f1b2c3d4e5f6a7b8c9d0a1"
	// Owned by ownerID, not the renter.
	foreignVehicleID = "64f1b2c3d4e5f6a7b8c9d0a2"
)

// memReservationRepo is an in-memory stand-in preserving the store's
// closed-interval overlap semantics.
type memReservationRepo struct {
	mu    sync.Mutex
	seq   int
	items map[string]*model.Reservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{items: map[string]*model.Reservation{}}
}

func (m *memReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if reservation.ID == "" {
		reservation.ID = fmt.Sprintf("64f1b2c3d4e5f6a7b8c9d1%02x", m.seq)
	}
	reservation.CreatedAt = time.Now()
	stored := *reservation
	m.items[reservation.ID] = &stored
	return nil
}

func (m *memReservationRepo) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.items[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *memReservationRepo) FindAll(_ context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, r := range m.items {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memReservationRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func (m *memReservationRepo) FindByParking(_ context.Context, parkingID string, limit int, offset int64) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, r := range m.items {
		if r.ParkingID == parkingID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReservationRepo) CountByParking(_ context.Context, parkingID string) (int64, error) {
	out, _ := m.FindByParking(nil, parkingID, 0, 0)
	return int64(len(out)), nil
}

func (m *memReservationRepo) FindOverlapping(_ context.Context, parkingID string, start, end time.Time, excludeID string) ([]*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reservation
	for _, r := range m.items {
		if r.ID == excludeID || r.ParkingID != parkingID {
			continue
		}
		if !r.StartDate.After(end) && !r.EndDate.Before(start) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memReservationRepo) Update(_ context.Context, id string, reservation *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[id]
	if !ok {
		return reservationserrors.ErrNotFound
	}
	existing.VehicleID = reservation.VehicleID
	existing.StartDate = reservation.StartDate
	existing.EndDate = reservation.EndDate
	existing.Status = reservation.Status
	return nil
}

func (m *memReservationRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return reservationserrors.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memReservationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func (m *memReservationRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLockRepo() *memLockRepo {
	return &memLockRepo{held: map[string]bool{}}
}

func (m *memLockRepo) Create(_ context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lock.ID] {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}
	m.held[lock.ID] = true
	return lock, nil
}

func (m *memLockRepo) Delete(_ context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	return nil
}

type fakePlaceLookup struct {
	placesrepo.PlaceRepository
	findByIDFn func(ctx context.Context, id string) (*model.Place, error)
}

func (f *fakePlaceLookup) FindByID(ctx context.Context, id string) (*model.Place, error) {
	return f.findByIDFn(ctx, id)
}

type fakeVehicleLookup struct {
	vehiclesrepo.VehicleRepository
	findByIDFn func(ctx context.Context, id string) (*model.Vehicle, error)
}

func (f *fakeVehicleLookup) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	return f.findByIDFn(ctx, id)
}

type fakeUserLookup struct {
	usersrepo.UserRepository
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (f *fakeUserLookup) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f.findByIDFn(ctx, id)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type recordingScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled []string
}

func newRecordingScheduler() *recordingScheduler {
	return &recordingScheduler{scheduled: map[string]time.Time{}}
}

func (r *recordingScheduler) Schedule(key string, at time.Time, _ notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled[key] = at
}

func (r *recordingScheduler) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, key)
}

type fixture struct {
	svc         ReservationService
	repo        *memReservationRepo
	locks       *memLockRepo
	broadcaster *recordingBroadcaster
	scheduler   *recordingScheduler
}

func newFixture() *fixture {
	cfg := &config.Config{
		Log:          logger.New(logger.Config{Output: io.Discard}),
		ReminderLead: 30 * time.Minute,
		LockTTL:      10 * time.Second,
	}
	repo := newMemReservationRepo()
	locks := newMemLockRepo()
	broadcaster := &recordingBroadcaster{}
	scheduler := newRecordingScheduler()

	places := &fakePlaceLookup{findByIDFn: func(_ context.Context, id string) (*model.Place, error) {
		if id != placeID {
			return nil, placeserrors.ErrNotFound
		}
		return &model.Place{
			ID:          placeID,
			Description: "Covered spot near the station",
			Type:        model.PlaceTypeCovered,
			Geolocation: []float64{2.3522, 48.8566},
			UserID:      ownerID,
		}, nil
	}}
	vehicles := &fakeVehicleLookup{findByIDFn: func(_ context.Context, id string) (*model.Vehicle, error) {
		switch id {
		case vehicleID:
			return &model.Vehicle{ID: vehicleID, UserID: renterID}, nil
		case foreignVehicleID:
			return &model.Vehicle{ID: foreignVehicleID, UserID: ownerID}, nil
		}
		return nil, vehicleserrors.ErrNotFound
	}}
	users := &fakeUserLookup{findByIDFn: func(_ context.Context, id string) (*model.User, error) {
		if id == ownerID {
			return &model.User{ID: ownerID, UserName: "marcel", FirstName: "Marcel", LastName: "Dupont"}, nil
		}
		return &model.User{ID: id}, nil
	}}

	svc := NewReservationService(
		repo, locks, places, vehicles, users,
		validator.NewReservationValidator(cfg.Log),
		broadcaster, scheduler, cfg,
	)
	return &fixture{svc: svc, repo: repo, locks: locks, broadcaster: broadcaster, scheduler: scheduler}
}

func requestFor(start, end time.Time) *model.Reservation {
	return &model.Reservation{
		ParkingID: placeID,
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   end,
	}
}

func day(n int) time.Time {
	return time.Date(2026, time.September, n, 12, 0, 0, 0, time.UTC)
}

func TestCreateSnapshotsOwnerAndNotifies(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if reservation.OwnerUserID != ownerID {
		t.Errorf("expected owner snapshot %q, got %q", ownerID, reservation.OwnerUserID)
	}
	if reservation.RenterUserID != renterID {
		t.Errorf("expected renter from principal, got %q", reservation.RenterUserID)
	}
	if reservation.Status != model.StatusInProcess {
		t.Errorf("expected initial status %q, got %q", model.StatusInProcess, reservation.Status)
	}
	if f.repo.len() != 1 {
		t.Errorf("expected one persisted reservation, got %d", f.repo.len())
	}

	if len(f.broadcaster.events) != 1 {
		t.Fatalf("expected one broadcast event, got %d", len(f.broadcaster.events))
	}
	event := f.broadcaster.events[0]
	if event.Type != notify.EventReservationCreated {
		t.Errorf("expected %q event, got %q", notify.EventReservationCreated, event.Type)
	}
	payload, ok := event.Payload.(notify.ReservationCreated)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Payload)
	}
	if payload.OwnerName != "marcel" {
		t.Errorf("expected owner username in payload, got %q", payload.OwnerName)
	}

	at, ok := f.scheduler.scheduled["reservation:"+reservation.ID]
	if !ok {
		t.Fatal("expected a reminder to be scheduled")
	}
	if want := reservation.EndDate.Add(-30 * time.Minute); !at.Equal(want) {
		t.Errorf("expected reminder at %v, got %v", want, at)
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	f := newFixture()

	if err := f.svc.Create(context.Background(), requestFor(day(1), day(3)), renterID); err != nil {
		t.Fatalf("first reservation should succeed, got %v", err)
	}

	err := f.svc.Create(context.Background(), requestFor(day(2), day(4)), strangerID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 for overlapping dates, got %v", err)
	}
	if f.repo.len() != 1 {
		t.Errorf("store must still hold exactly one reservation, got %d", f.repo.len())
	}
}

func TestCreateRejectsBoundaryTouch(t *testing.T) {
	f := newFixture()

	if err := f.svc.Create(context.Background(), requestFor(day(1), day(3)), renterID); err != nil {
		t.Fatalf("first reservation should succeed, got %v", err)
	}

	// Closed intervals: a new start equal to an existing end conflicts.
	err := f.svc.Create(context.Background(), requestFor(day(3), day(5)), renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 for boundary-touching dates, got %v", err)
	}
}

func TestCreateDiscardsClientSuppliedID(t *testing.T) {
	f := newFixture()

	first := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), first, renterID); err != nil {
		t.Fatalf("first reservation should succeed, got %v", err)
	}

	// Echoing an existing reservation's ID in the request body must not
	// exclude that reservation from the overlap check.
	second := requestFor(day(2), day(4))
	second.ID = first.ID
	err := f.svc.Create(context.Background(), second, renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 despite the echoed ID, got %v", err)
	}
	if f.repo.len() != 1 {
		t.Errorf("store must still hold exactly one reservation, got %d", f.repo.len())
	}

	third := requestFor(day(10), day(12))
	third.ID = first.ID
	if err := f.svc.Create(context.Background(), third, renterID); err != nil {
		t.Fatalf("non-overlapping reservation should succeed, got %v", err)
	}
	if third.ID == first.ID || third.ID == "" {
		t.Errorf("expected a store-assigned ID, got %q", third.ID)
	}
}

func TestCreateForeignVehicleForbidden(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	reservation.VehicleID = foreignVehicleID

	err := f.svc.Create(context.Background(), reservation, renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Fatalf("expected 403 for foreign vehicle, got %v", err)
	}
	if f.repo.len() != 0 {
		t.Errorf("no reservation may be persisted, got %d", f.repo.len())
	}
}

func TestCreateUnknownPlaceNotFoundBeforeConflict(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	reservation.ParkingID = "64f1b2c3d4e5f6a7b8c9d0ff"

	err := f.svc.Create(context.Background(), reservation, renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 404 {
		t.Fatalf("expected 404 for unknown place, got %v", err)
	}
}

func TestCreateMissingParams(t *testing.T) {
	f := newFixture()

	err := f.svc.Create(context.Background(), &model.Reservation{ParkingID: placeID}, renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 400 {
		t.Fatalf("expected 400 for missing parameters, got %v", err)
	}
}

func TestCreateHeldLockIsConflict(t *testing.T) {
	f := newFixture()

	if _, err := f.locks.Create(context.Background(), &model.ReservationLock{ID: "reservation_lock_" + placeID}); err != nil {
		t.Fatal(err)
	}

	err := f.svc.Create(context.Background(), requestFor(day(1), day(3)), renterID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 while the place lock is held, got %v", err)
	}
}

func TestCreateReleasesLock(t *testing.T) {
	f := newFixture()

	if err := f.svc.Create(context.Background(), requestFor(day(1), day(3)), renterID); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// A later non-overlapping reservation proves the lock was released.
	if err := f.svc.Create(context.Background(), requestFor(day(10), day(12)), renterID); err != nil {
		t.Fatalf("lock must be released after creation, got %v", err)
	}
}

func TestUpdateRenterOnly(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatal(err)
	}

	status := model.StatusConfirmed
	if _, err := f.svc.Update(context.Background(), reservation.ID, renterID, &model.ReservationUpdate{Status: status}); err != nil {
		t.Errorf("renter update should succeed, got %v", err)
	}

	// The place owner has no privilege over the reservation itself.
	_, err := f.svc.Update(context.Background(), reservation.ID, ownerID, &model.ReservationUpdate{Status: status})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Errorf("owner update should be forbidden, got %v", err)
	}
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Update(context.Background(), reservation.ID, renterID, &model.ReservationUpdate{Status: "Archived"})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 422 {
		t.Errorf("expected 422 for unknown status, got %v", err)
	}
}

func TestUpdateDateChangeReChecksConflicts(t *testing.T) {
	f := newFixture()

	first := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), first, renterID); err != nil {
		t.Fatal(err)
	}
	second := requestFor(day(5), day(7))
	if err := f.svc.Create(context.Background(), second, renterID); err != nil {
		t.Fatal(err)
	}

	// Moving the second reservation onto the first must conflict.
	newStart, newEnd := day(2), day(4)
	_, err := f.svc.Update(context.Background(), second.ID, renterID, &model.ReservationUpdate{StartDate: &newStart, EndDate: &newEnd})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 409 {
		t.Fatalf("expected 409 when moving onto an existing reservation, got %v", err)
	}

	// Moving it to a free range succeeds and reschedules the reminder.
	newStart, newEnd = day(10), day(12)
	updated, err := f.svc.Update(context.Background(), second.ID, renterID, &model.ReservationUpdate{StartDate: &newStart, EndDate: &newEnd})
	if err != nil {
		t.Fatalf("moving to a free range should succeed, got %v", err)
	}
	at, ok := f.scheduler.scheduled["reservation:"+second.ID]
	if !ok {
		t.Fatal("expected reminder to be scheduled")
	}
	if want := updated.EndDate.Add(-30 * time.Minute); !at.Equal(want) {
		t.Errorf("expected rescheduled reminder at %v, got %v", want, at)
	}
}

func TestUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatal(err)
	}

	// Extending within its own window must not conflict with itself.
	newEnd := day(4)
	if _, err := f.svc.Update(context.Background(), reservation.ID, renterID, &model.ReservationUpdate{EndDate: &newEnd}); err != nil {
		t.Fatalf("self-overlapping update should succeed, got %v", err)
	}
}

func TestDeleteRenterOnlyAndCancelsReminder(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatal(err)
	}

	err := f.svc.Delete(context.Background(), reservation.ID, strangerID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.HTTPStatus != 403 {
		t.Errorf("stranger delete should be forbidden, got %v", err)
	}

	if err := f.svc.Delete(context.Background(), reservation.ID, renterID); err != nil {
		t.Fatalf("renter delete should succeed, got %v", err)
	}
	if f.repo.len() != 0 {
		t.Errorf("expected empty store after delete, got %d", f.repo.len())
	}

	want := "reservation:" + reservation.ID
	found := false
	for _, key := range f.scheduler.cancelled {
		if key == want {
			found = true
		}
	}
	if !found {
		t.Error("expected the pending reminder to be cancelled")
	}
}

func TestGetByIDPopulatesReferences(t *testing.T) {
	f := newFixture()

	reservation := requestFor(day(1), day(3))
	if err := f.svc.Create(context.Background(), reservation, renterID); err != nil {
		t.Fatal(err)
	}

	detail, err := f.svc.GetByID(context.Background(), reservation.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if detail.Place == nil || detail.Place.ID != placeID {
		t.Error("expected populated place")
	}
	if detail.Vehicle == nil || detail.Vehicle.ID != vehicleID {
		t.Error("expected populated vehicle")
	}
	if detail.Owner == nil || detail.Owner.UserName != "marcel" {
		t.Error("expected populated owner")
	}
	if detail.Renter == nil || detail.Renter.ID != renterID {
		t.Error("expected populated renter")
	}
}
