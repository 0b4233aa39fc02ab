package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"canchapp/internal/metrics"
	"canchapp/internal/models"
)

// AdminStore is the management surface behind the /api/admin endpoints.
// *database.DB satisfies it.
type AdminStore interface {
	CreateFacility(ctx context.Context, f *models.Facility) error
	DeactivateFacility(ctx context.Context, id int64) error
	ListRulesByFacility(ctx context.Context, facilityID int64) ([]models.ScheduleRule, error)
	CreateScheduleRule(ctx context.Context, rule *models.ScheduleRule) error
	DeleteScheduleRule(ctx context.Context, id int64) error
	CreateHoliday(ctx context.Context, h *models.Holiday) error
	DeleteHoliday(ctx context.Context, date string) error
	ListHolidays(ctx context.Context, from, to string) ([]models.Holiday, error)
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserTelegramChat(ctx context.Context, userID, chatID int64) error
}

// withManager requires a session belonging to a configured manager.
func (s *HTTPServer) withManager(next http.HandlerFunc) http.HandlerFunc {
	return s.withUser(func(w http.ResponseWriter, r *http.Request) {
		if !s.managers[sessionFrom(r).UserID] {
			writeError(w, http.StatusForbidden, "manager access required")
			return
		}
		next(w, r)
	})
}

// CreateFacilityRequest is the request body for POST /api/admin/facilities.
type CreateFacilityRequest struct {
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`
	Surface      string  `json:"surface,omitempty"`
	Capacity     int     `json:"capacity,omitempty"`
	PricePerHour float64 `json:"price_per_hour,omitempty"`
	Description  string  `json:"description,omitempty"`
}

// handleAdminFacilities creates facilities.
// POST /api/admin/facilities
func (s *HTTPServer) handleAdminFacilities(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_facilities")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CreateFacilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	facility := &models.Facility{
		Name:         req.Name,
		Address:      req.Address,
		Surface:      req.Surface,
		Capacity:     req.Capacity,
		PricePerHour: req.PricePerHour,
		Description:  req.Description,
		IsActive:     true,
	}
	if err := s.store.CreateFacility(r.Context(), facility); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, facilityResponse(*facility))
}

// CreateRuleRequest is the request body for creating a schedule rule.
type CreateRuleRequest struct {
	Weekday         string `json:"weekday"`    // "monday".."sunday"
	StartTime       string `json:"start_time"` // "HH:MM"
	EndTime         string `json:"end_time"`   // "HH:MM"
	IntervalMinutes int    `json:"interval_minutes"`
	Enabled         *bool  `json:"enabled,omitempty"` // defaults to true
}

// handleAdminFacilityByID dispatches the facility subtree:
// POST /api/admin/facilities/{id}/deactivate
// GET  /api/admin/facilities/{id}/rules
// POST /api/admin/facilities/{id}/rules
func (s *HTTPServer) handleAdminFacilityByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_facility")

	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/facilities/")
	idStr, action, _ := strings.Cut(rest, "/")
	facilityID, err := parseID(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid facility id")
		return
	}

	switch {
	case action == "deactivate" && r.Method == http.MethodPost:
		if err := s.store.DeactivateFacility(r.Context(), facilityID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})

	case action == "rules" && r.Method == http.MethodGet:
		rules, err := s.store.ListRulesByFacility(r.Context(), facilityID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if rules == nil {
			rules = []models.ScheduleRule{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})

	case action == "rules" && r.Method == http.MethodPost:
		s.createScheduleRule(w, r, facilityID)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) createScheduleRule(w http.ResponseWriter, r *http.Request, facilityID int64) {
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	weekday, err := models.ParseWeekday(req.Weekday)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	rule := &models.ScheduleRule{
		FacilityID:      facilityID,
		Weekday:         weekday,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IntervalMinutes: req.IntervalMinutes,
		Enabled:         enabled,
	}
	if err := s.store.CreateScheduleRule(r.Context(), rule); err != nil {
		// Rule validation failures (start >= end, bad interval) come back
		// wrapped from the store.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// handleAdminRuleByID deletes a schedule rule.
// DELETE /api/admin/rules/{id}
func (s *HTTPServer) handleAdminRuleByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_rule")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, err := parseID(strings.TrimPrefix(r.URL.Path, "/api/admin/rules/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}
	if err := s.store.DeleteScheduleRule(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAdminHolidays manages the holiday calendar.
// GET    /api/admin/holidays?from=YYYY-MM-DD&to=YYYY-MM-DD
// POST   /api/admin/holidays
// DELETE /api/admin/holidays?date=YYYY-MM-DD
func (s *HTTPServer) handleAdminHolidays(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_holidays")

	switch r.Method {
	case http.MethodGet:
		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" {
			from = time.Now().Format(models.DateFormat)
		}
		if to == "" {
			to = time.Now().AddDate(1, 0, 0).Format(models.DateFormat)
		}
		holidays, err := s.store.ListHolidays(r.Context(), from, to)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if holidays == nil {
			holidays = []models.Holiday{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"holidays": holidays})

	case http.MethodPost:
		var h models.Holiday
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if _, err := time.Parse(models.DateFormat, h.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		if err := s.store.CreateHoliday(r.Context(), &h); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, h)

	case http.MethodDelete:
		date := r.URL.Query().Get("date")
		if _, err := time.Parse(models.DateFormat, date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
			return
		}
		if err := s.store.DeleteHoliday(r.Context(), date); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// CreateUserRequest is the request body for POST /api/admin/users.
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// handleAdminUsers registers accounts for the reservation platform.
// POST /api/admin/users
func (s *HTTPServer) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("admin_users")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	existing, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	user := &models.User{Email: req.Email, Name: req.Name, IsActive: true}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LinkTelegramRequest is the request body for POST /api/me/telegram.
type LinkTelegramRequest struct {
	ChatID int64 `json:"chat_id"`
}

// handleLinkTelegram links the caller's Telegram chat for reminders.
// POST /api/me/telegram
func (s *HTTPServer) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("link_telegram")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LinkTelegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID <= 0 {
		writeError(w, http.StatusBadRequest, "chat_id must be positive")
		return
	}

	if err := s.store.SetUserTelegramChat(r.Context(), sessionFrom(r).UserID, req.ChatID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}
