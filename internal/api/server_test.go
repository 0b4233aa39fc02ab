package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"canchapp/internal/auth"
	"canchapp/internal/database"
	"canchapp/internal/models"
	"canchapp/internal/service"
)

const (
	testToken    = "valid-token"
	managerToken = "manager-token"
)

type fakeCore struct {
	listFacilities   func(ctx context.Context) ([]models.Facility, error)
	availableSlots   func(ctx context.Context, facilityID int64, date string) ([]string, error)
	create           func(ctx context.Context, userID, facilityID int64, date, timeStr string) (*models.Reservation, error)
	cancel           func(ctx context.Context, userID, reservationID int64) error
	userReservations func(ctx context.Context, userID int64) ([]models.Reservation, error)
}

func (f *fakeCore) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	return f.listFacilities(ctx)
}
func (f *fakeCore) GetAvailableSlots(ctx context.Context, facilityID int64, date string) ([]string, error) {
	return f.availableSlots(ctx, facilityID, date)
}
func (f *fakeCore) CreateReservation(ctx context.Context, userID, facilityID int64, date, timeStr string) (*models.Reservation, error) {
	return f.create(ctx, userID, facilityID, date, timeStr)
}
func (f *fakeCore) CancelReservation(ctx context.Context, userID, reservationID int64) error {
	return f.cancel(ctx, userID, reservationID)
}
func (f *fakeCore) ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error) {
	return f.userReservations(ctx, userID)
}

type fakeSessions struct{}

func (fakeSessions) Resolve(ctx context.Context, token string) (*auth.Session, error) {
	switch token {
	case testToken:
		return &auth.Session{UserID: 7, Email: "ana@example.com"}, nil
	case managerToken:
		return &auth.Session{UserID: 1, Email: "admin@example.com"}, nil
	}
	return nil, auth.ErrSessionNotFound
}

type fakeStore struct {
	createFacility func(ctx context.Context, f *models.Facility) error
	deactivate     func(ctx context.Context, id int64) error
	listRules      func(ctx context.Context, facilityID int64) ([]models.ScheduleRule, error)
	createRule     func(ctx context.Context, rule *models.ScheduleRule) error
	deleteRule     func(ctx context.Context, id int64) error
	createHoliday  func(ctx context.Context, h *models.Holiday) error
	deleteHoliday  func(ctx context.Context, date string) error
	listHolidays   func(ctx context.Context, from, to string) ([]models.Holiday, error)
	createUser     func(ctx context.Context, u *models.User) error
	userByEmail    func(ctx context.Context, email string) (*models.User, error)
	setTelegram    func(ctx context.Context, userID, chatID int64) error
}

func (f *fakeStore) CreateFacility(ctx context.Context, fc *models.Facility) error {
	return f.createFacility(ctx, fc)
}
func (f *fakeStore) DeactivateFacility(ctx context.Context, id int64) error {
	return f.deactivate(ctx, id)
}
func (f *fakeStore) ListRulesByFacility(ctx context.Context, facilityID int64) ([]models.ScheduleRule, error) {
	return f.listRules(ctx, facilityID)
}
func (f *fakeStore) CreateScheduleRule(ctx context.Context, rule *models.ScheduleRule) error {
	return f.createRule(ctx, rule)
}
func (f *fakeStore) DeleteScheduleRule(ctx context.Context, id int64) error {
	return f.deleteRule(ctx, id)
}
func (f *fakeStore) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	return f.createHoliday(ctx, h)
}
func (f *fakeStore) DeleteHoliday(ctx context.Context, date string) error {
	return f.deleteHoliday(ctx, date)
}
func (f *fakeStore) ListHolidays(ctx context.Context, from, to string) ([]models.Holiday, error) {
	return f.listHolidays(ctx, from, to)
}
func (f *fakeStore) CreateUser(ctx context.Context, u *models.User) error {
	return f.createUser(ctx, u)
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.userByEmail(ctx, email)
}
func (f *fakeStore) SetUserTelegramChat(ctx context.Context, userID, chatID int64) error {
	return f.setTelegram(ctx, userID, chatID)
}

func setupTestServer(core *fakeCore) *httptest.Server {
	return setupAdminServer(core, &fakeStore{})
}

func setupAdminServer(core *fakeCore, store *fakeStore) *httptest.Server {
	logger := zerolog.New(io.Discard)
	server := NewHTTPServer(core, fakeSessions{}, store, []int64{1}, 0, &logger)
	return httptest.NewServer(server.server.Handler)
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func authedRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestHandleAvailability(t *testing.T) {
	core := &fakeCore{
		availableSlots: func(ctx context.Context, facilityID int64, date string) ([]string, error) {
			if date == "06/09/2025" {
				return nil, &service.ValidationError{Reason: "invalid date"}
			}
			return []string{"10:00", "11:00"}, nil
		},
	}
	srv := setupTestServer(core)
	defer srv.Close()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"ok", "?facility_id=1&date=2025-06-09", http.StatusOK},
		{"missing facility_id", "?date=2025-06-09", http.StatusBadRequest},
		{"bad facility_id", "?facility_id=abc&date=2025-06-09", http.StatusBadRequest},
		{"missing date", "?facility_id=1", http.StatusBadRequest},
		{"service rejects date", "?facility_id=1&date=06/09/2025", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/availability" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}

	t.Run("payload", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/availability?facility_id=1&date=2025-06-09")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var got AvailabilityResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.FacilityID != 1 || got.Date != "2025-06-09" || len(got.Slots) != 2 {
			t.Errorf("unexpected payload: %+v", got)
		}
	})
}

func TestReservationsRequireAuth(t *testing.T) {
	srv := setupTestServer(&fakeCore{})
	defer srv.Close()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req, _ := http.NewRequest(method, srv.URL+"/api/reservations", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", method, resp.StatusCode)
		}
	}
}

func TestCreateReservation(t *testing.T) {
	core := &fakeCore{
		create: func(ctx context.Context, userID, facilityID int64, date, timeStr string) (*models.Reservation, error) {
			if timeStr == "11:00" {
				return nil, database.ErrSlotTaken
			}
			return &models.Reservation{
				ID: 42, FacilityID: facilityID, UserID: userID,
				Date: date, Time: timeStr, Status: models.StatusConfirmed,
			}, nil
		},
	}
	srv := setupTestServer(core)
	defer srv.Close()

	t.Run("created", func(t *testing.T) {
		body, _ := json.Marshal(CreateReservationRequest{FacilityID: 1, Date: "2025-06-09", Time: "10:00"})
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/reservations", body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}

		var got ReservationResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.ID != 42 || got.Status != models.StatusConfirmed {
			t.Errorf("unexpected payload: %+v", got)
		}
	})

	t.Run("slot taken maps to conflict", func(t *testing.T) {
		body, _ := json.Marshal(CreateReservationRequest{FacilityID: 1, Date: "2025-06-09", Time: "11:00"})
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/reservations", body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		body := []byte(`{"facility_id": 1}`)
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/reservations", body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if msg := decodeError(t, resp); msg != "facility_id, date and time are required" {
			t.Errorf("error = %q", msg)
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		body := []byte(`{"facility_id": 1, "date": "2025-06-09", "time": "10:00", "bogus": true}`)
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/reservations", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestCancelReservation(t *testing.T) {
	core := &fakeCore{
		cancel: func(ctx context.Context, userID, reservationID int64) error {
			switch reservationID {
			case 404:
				return service.ErrNotFound
			case 403:
				return service.ErrForbidden
			}
			return nil
		},
	}
	srv := setupTestServer(core)
	defer srv.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"cancelled", "/api/reservations/42", http.StatusOK},
		{"not found", "/api/reservations/404", http.StatusNotFound},
		{"not owner", "/api/reservations/403", http.StatusForbidden},
		{"bad id", "/api/reservations/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodDelete, srv.URL+tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestListReservations(t *testing.T) {
	core := &fakeCore{
		userReservations: func(ctx context.Context, userID int64) ([]models.Reservation, error) {
			return []models.Reservation{
				{ID: 2, UserID: userID, Date: "2025-06-09", Time: "11:00", Status: models.StatusConfirmed},
				{ID: 1, UserID: userID, Date: "2025-05-26", Time: "10:00", Status: models.StatusFinalized},
			}, nil
		},
	}
	srv := setupTestServer(core)
	defer srv.Close()

	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodGet, srv.URL+"/api/reservations", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got struct {
		Reservations []ReservationResponse `json:"reservations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Reservations) != 2 || got.Reservations[0].ID != 2 {
		t.Errorf("unexpected payload: %+v", got)
	}
}
