package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"canchapp/internal/models"
)

func managerRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	req := authedRequest(t, method, url, body)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	return req
}

func TestAdminRequiresManager(t *testing.T) {
	srv := setupTestServer(&fakeCore{})
	defer srv.Close()

	paths := []string{
		"/api/admin/facilities",
		"/api/admin/holidays",
		"/api/admin/users",
	}
	for _, path := range paths {
		// A regular authenticated user is not enough.
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+path, []byte(`{}`)))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s as non-manager: status = %d, want 403", path, resp.StatusCode)
		}

		req, _ := http.NewRequest(http.MethodPost, srv.URL+path, nil)
		resp, err = http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestAdminCreateFacility(t *testing.T) {
	store := &fakeStore{
		createFacility: func(ctx context.Context, f *models.Facility) error {
			f.ID = 5
			return nil
		},
	}
	srv := setupAdminServer(&fakeCore{}, store)
	defer srv.Close()

	t.Run("created", func(t *testing.T) {
		body, _ := json.Marshal(CreateFacilityRequest{Name: "Cancha Norte", Surface: "synthetic", Capacity: 10})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/facilities", body))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}

		var got FacilityResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.ID != 5 || got.Name != "Cancha Norte" {
			t.Errorf("unexpected payload: %+v", got)
		}
	})

	t.Run("name required", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/facilities", []byte(`{"surface":"grass"}`)))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestAdminScheduleRules(t *testing.T) {
	var created *models.ScheduleRule
	store := &fakeStore{
		createRule: func(ctx context.Context, rule *models.ScheduleRule) error {
			if err := rule.Validate(); err != nil {
				return err
			}
			rule.ID = 11
			created = rule
			return nil
		},
		listRules: func(ctx context.Context, facilityID int64) ([]models.ScheduleRule, error) {
			return nil, nil
		},
		deleteRule: func(ctx context.Context, id int64) error { return nil },
	}
	srv := setupAdminServer(&fakeCore{}, store)
	defer srv.Close()

	t.Run("create", func(t *testing.T) {
		body, _ := json.Marshal(CreateRuleRequest{
			Weekday: "monday", StartTime: "10:00", EndTime: "14:00", IntervalMinutes: 60,
		})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/facilities/3/rules", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
		if created == nil || created.FacilityID != 3 || created.Weekday != models.Monday || !created.Enabled {
			t.Errorf("unexpected rule: %+v", created)
		}
	})

	t.Run("bad weekday", func(t *testing.T) {
		body, _ := json.Marshal(CreateRuleRequest{
			Weekday: "someday", StartTime: "10:00", EndTime: "14:00", IntervalMinutes: 60,
		})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/facilities/3/rules", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid window rejected by store validation", func(t *testing.T) {
		body, _ := json.Marshal(CreateRuleRequest{
			Weekday: "monday", StartTime: "14:00", EndTime: "10:00", IntervalMinutes: 60,
		})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/facilities/3/rules", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("list empty is an array", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodGet, srv.URL+"/api/admin/facilities/3/rules", nil))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var got struct {
			Rules []models.ScheduleRule `json:"rules"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.Rules == nil {
			t.Error("rules should decode as empty array, not null")
		}
	})

	t.Run("delete", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodDelete, srv.URL+"/api/admin/rules/11", nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})
}

func TestAdminHolidays(t *testing.T) {
	store := &fakeStore{
		createHoliday: func(ctx context.Context, h *models.Holiday) error { return nil },
		deleteHoliday: func(ctx context.Context, date string) error { return nil },
		listHolidays: func(ctx context.Context, from, to string) ([]models.Holiday, error) {
			return []models.Holiday{{Date: "2025-12-25", Description: "Navidad"}}, nil
		},
	}
	srv := setupAdminServer(&fakeCore{}, store)
	defer srv.Close()

	t.Run("create", func(t *testing.T) {
		body, _ := json.Marshal(models.Holiday{Date: "2025-12-25", Description: "Navidad"})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/holidays", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}
	})

	t.Run("create bad date", func(t *testing.T) {
		body, _ := json.Marshal(models.Holiday{Date: "25/12/2025", Description: "Navidad"})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/holidays", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("list", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodGet, srv.URL+"/api/admin/holidays?from=2025-01-01&to=2025-12-31", nil))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var got struct {
			Holidays []models.Holiday `json:"holidays"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if len(got.Holidays) != 1 || got.Holidays[0].Date != "2025-12-25" {
			t.Errorf("unexpected payload: %+v", got)
		}
	})

	t.Run("delete requires date", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodDelete, srv.URL+"/api/admin/holidays", nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestAdminCreateUser(t *testing.T) {
	store := &fakeStore{
		userByEmail: func(ctx context.Context, email string) (*models.User, error) {
			if email == "taken@example.com" {
				return &models.User{ID: 2, Email: email}, nil
			}
			return nil, nil
		},
		createUser: func(ctx context.Context, u *models.User) error {
			u.ID = 9
			return nil
		},
	}
	srv := setupAdminServer(&fakeCore{}, store)
	defer srv.Close()

	t.Run("created", func(t *testing.T) {
		body, _ := json.Marshal(CreateUserRequest{Email: "new@example.com", Name: "Nuevo"})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/users", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("status = %d, want 201", resp.StatusCode)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		body, _ := json.Marshal(CreateUserRequest{Email: "taken@example.com"})
		resp, err := http.DefaultClient.Do(managerRequest(t, http.MethodPost, srv.URL+"/api/admin/users", body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})
}

func TestLinkTelegram(t *testing.T) {
	var gotUser, gotChat int64
	store := &fakeStore{
		setTelegram: func(ctx context.Context, userID, chatID int64) error {
			gotUser, gotChat = userID, chatID
			return nil
		},
	}
	srv := setupAdminServer(&fakeCore{}, store)
	defer srv.Close()

	body, _ := json.Marshal(LinkTelegramRequest{ChatID: 123456})
	resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/me/telegram", body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if gotUser != 7 || gotChat != 123456 {
		t.Errorf("linked user=%d chat=%d, want 7/123456", gotUser, gotChat)
	}

	t.Run("chat_id must be positive", func(t *testing.T) {
		resp, err := http.DefaultClient.Do(authedRequest(t, http.MethodPost, srv.URL+"/api/me/telegram", []byte(`{"chat_id":0}`)))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}
