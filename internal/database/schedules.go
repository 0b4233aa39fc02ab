package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canchapp/internal/models"
)

// CreateScheduleRule validates and inserts a recurring weekly rule.
// Invalid windows (start >= end, non-positive interval) are hard errors.
func (db *DB) CreateScheduleRule(ctx context.Context, rule *models.ScheduleRule) error {
	if rule == nil {
		return fmt.Errorf("rule is nil")
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid schedule rule: %w", err)
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO schedule_rules (facility_id, weekday, start_time, end_time,
		                            interval_minutes, enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.FacilityID, int(rule.Weekday), rule.StartTime, rule.EndTime,
		rule.IntervalMinutes, rule.Enabled, now,
	)
	if err != nil {
		return fmt.Errorf("create schedule rule: %w", err)
	}

	rule.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	rule.CreatedAt = now
	return nil
}

// UpdateScheduleRule rewrites a rule's window after re-validating it.
func (db *DB) UpdateScheduleRule(ctx context.Context, rule *models.ScheduleRule) error {
	if rule == nil {
		return fmt.Errorf("rule is nil")
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid schedule rule: %w", err)
	}

	_, err := db.ExecContext(ctx, `
		UPDATE schedule_rules
		SET weekday = ?, start_time = ?, end_time = ?, interval_minutes = ?, enabled = ?
		WHERE id = ?`,
		int(rule.Weekday), rule.StartTime, rule.EndTime, rule.IntervalMinutes,
		rule.Enabled, rule.ID,
	)
	return err
}

// ListEnabledRules returns the enabled rules for one facility and weekday.
func (db *DB) ListEnabledRules(ctx context.Context, facilityID int64, weekday models.Weekday) ([]models.ScheduleRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, facility_id, weekday, start_time, end_time, interval_minutes, enabled, created_at
		FROM schedule_rules
		WHERE facility_id = ? AND weekday = ? AND enabled = 1
		ORDER BY start_time`,
		facilityID, int(weekday),
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// ListRulesByFacility returns every rule of a facility, enabled or not.
func (db *DB) ListRulesByFacility(ctx context.Context, facilityID int64) ([]models.ScheduleRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, facility_id, weekday, start_time, end_time, interval_minutes, enabled, created_at
		FROM schedule_rules
		WHERE facility_id = ?
		ORDER BY weekday, start_time`,
		facilityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list facility rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// DeleteScheduleRule removes a single rule.
func (db *DB) DeleteScheduleRule(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM schedule_rules WHERE id = ?", id)
	return err
}

func scanRules(rows *sql.Rows) ([]models.ScheduleRule, error) {
	var rules []models.ScheduleRule
	for rows.Next() {
		var r models.ScheduleRule
		var weekday int
		if err := rows.Scan(
			&r.ID, &r.FacilityID, &weekday, &r.StartTime, &r.EndTime,
			&r.IntervalMinutes, &r.Enabled, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		r.Weekday = models.Weekday(weekday)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// GetHoliday returns the holiday record for a date, or (nil, nil) when the
// date is a regular day.
func (db *DB) GetHoliday(ctx context.Context, date string) (*models.Holiday, error) {
	var h models.Holiday
	err := db.QueryRowContext(ctx,
		"SELECT id, date, description, is_workday FROM holidays WHERE date = ?",
		date,
	).Scan(&h.ID, &h.Date, &h.Description, &h.IsWorkday)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get holiday %s: %w", date, err)
	}
	return &h, nil
}

// CreateHoliday inserts or updates the holiday entry for a date.
func (db *DB) CreateHoliday(ctx context.Context, h *models.Holiday) error {
	if h == nil {
		return fmt.Errorf("holiday is nil")
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO holidays (date, description, is_workday)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			description = excluded.description,
			is_workday = excluded.is_workday`,
		h.Date, h.Description, h.IsWorkday,
	)
	if err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		h.ID = id
	}
	return nil
}

// DeleteHoliday removes a holiday entry.
func (db *DB) DeleteHoliday(ctx context.Context, date string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM holidays WHERE date = ?", date)
	return err
}

// ListHolidays returns holidays in a date range, inclusive.
func (db *DB) ListHolidays(ctx context.Context, from, to string) ([]models.Holiday, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, date, description, is_workday
		FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []models.Holiday
	for rows.Next() {
		var h models.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Description, &h.IsWorkday); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
