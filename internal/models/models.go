package models

import (
	"fmt"
	"time"
)

const (
	// DateFormat is the wire and storage format for dates.
	DateFormat = "2006-01-02"
	// TimeFormat is the wire and storage format for times of day.
	// Minute granularity, no seconds, no timezone; all times are facility-local.
	TimeFormat = "15:04"
)

// User represents a platform account. Authentication itself lives outside
// the reservation core; the core only needs the resolved user.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"` // 0 means no linked chat
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Facility represents a bookable sports facility ("cancha").
type Facility struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	Surface      string    `json:"surface,omitempty"`
	Capacity     int       `json:"capacity,omitempty"`
	PricePerHour float64   `json:"price_per_hour,omitempty"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScheduleRule is a recurring weekly availability window for one facility.
// Multiple rules may exist for the same (facility, weekday); their generated
// slots are unioned.
type ScheduleRule struct {
	ID              int64     `json:"id"`
	FacilityID      int64     `json:"facility_id"`
	Weekday         Weekday   `json:"weekday"`
	StartTime       string    `json:"start_time"` // "HH:MM"
	EndTime         string    `json:"end_time"`   // "HH:MM"
	IntervalMinutes int       `json:"interval_minutes"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

/// Validate checks the rule invariants: a known weekday, a positive interval
// and start_time strictly before end_time.
func (r *ScheduleRule) Validate() error {
	if !r.Weekday.Valid() {
		return fmt.Errorf("invalid weekday %d", int(r.Weekday))
	}
	if r.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", r.IntervalMinutes)
	}
	start, err := time.Parse(TimeFormat, r.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time %q; expected HH:MM", r.StartTime)
	}
	end, err := time.Parse(TimeFormat, r.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time %q; expected HH:MM", r.EndTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time %s must be before end_time %s", r.StartTime, r.EndTime)
	}
	return nil
}

// Holiday is a date-level override of the weekly schedule. When IsWorkday is
// false the facility follows its Sunday-type schedule on that date; when true
// the regular weekday schedule applies.
type Holiday struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"` // "YYYY-MM-DD", unique
	Description string `json:"description,omitempty"`
	IsWorkday   bool   `json:"is_workday"`
}
