package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"parkspot/pkg/logger"
	"parkspot/pkg/middleware"
	"parkspot/pkg/model"
)

type mockReservationService struct {
	createFunc func(ctx context.Context, reservation *model.Reservation, principal string) error
	getAllFunc func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
}

func (m *mockReservationService) Create(ctx context.Context, reservation *model.Reservation, principal string) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reservation, principal)
	}
	return nil
}

func (m *mockReservationService) GetByID(ctx context.Context, id string) (*model.ReservationDetail, error) {
	return nil, nil
}

func (m *mockReservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockReservationService) Update(ctx context.Context, id string, principal string, updates *model.ReservationUpdate) (*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationService) Delete(ctx context.Context, id string, principal string) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func TestCreateResponseEnvelope(t *testing.T) {
	mockService := &mockReservationService{
		createFunc: func(_ context.Context, reservation *model.Reservation, principal string) error {
			reservation.ID = "64f1b2c3d4e5f6a7b8c9d101"
			reservation.RenterUserID = principal
			reservation.Status = model.StatusInProcess
			return nil
		},
	}
	handler := &ReservationHandler{service: mockService, log: testLogger()}

	body := `{"parkingId":"64f1b2c3d4e5f6a7b8c9d0b1","vehiculeId":"64f1b2c3d4e5f6a7b8c9d0a1","startDate":"2026-09-01T12:00:00Z","endDate":"2026-09-03T12:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	req = req.WithContext(middleware.ContextWithPrincipal(req.Context(), middleware.Principal{
		UserID: "64f1b2c3d4e5f6a7b8c9d0e2",
	}))
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	var resp struct {
		Message     string            `json:"message"`
		Reservation model.Reservation `json:"reservation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message == "" {
		t.Error("expected a message alongside the created reservation")
	}
	if resp.Reservation.ID != "64f1b2c3d4e5f6a7b8c9d101" {
		t.Errorf("expected the created reservation in the envelope, got ID %q", resp.Reservation.ID)
	}
}

func TestGetAllReturnsBareArray(t *testing.T) {
	start := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
	mockService := &mockReservationService{
		getAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
			return []*model.Reservation{
				{ID: "64f1b2c3d4e5f6a7b8c9d101", ParkingID: "64f1b2c3d4e5f6a7b8c9d0b1", StartDate: start, EndDate: start.AddDate(0, 0, 2)},
			}, 1, nil
		},
	}
	handler := &ReservationHandler{service: mockService, log: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	w := httptest.NewRecorder()

	handler.GetAll(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var reservations []model.Reservation
	if err := json.Unmarshal(w.Body.Bytes(), &reservations); err != nil {
		t.Fatalf("expected a JSON array, got %q: %v", w.Body.String(), err)
	}
	if len(reservations) != 1 || reservations[0].ID != "64f1b2c3d4e5f6a7b8c9d101" {
		t.Errorf("unexpected listing payload: %+v", reservations)
	}
}

func TestGetAllEmptyStoreIsEmptyArray(t *testing.T) {
	handler := &ReservationHandler{service: &mockReservationService{}, log: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
	w := httptest.NewRecorder()

	handler.GetAll(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("expected an empty array body, got %q", body)
	}
}
