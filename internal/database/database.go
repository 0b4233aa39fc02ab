// Package database implements SQLite storage for the reservation core.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Storage-level sentinels surfaced to the service layer. Both are produced
// by the partial unique indexes on the reservations table, which are the
// final arbiters for concurrent booking attempts.
var (
	// ErrSlotTaken means another confirmed reservation already holds the
	// (facility, date, time) slot.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrUserAlreadyBooked means the user already holds a confirmed
	// reservation on that date, at any facility.
	ErrUserAlreadyBooked = errors.New("user already has a reservation that day")
)

// DB wraps sql.DB for the reservation backend.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the filesystem path the database was opened with.
func (db *DB) Path() string {
	return db.path
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Users (accounts are managed elsewhere; the core reads them)
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			name TEXT,
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Facilities ("canchas")
		`CREATE TABLE IF NOT EXISTS facilities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			address TEXT,
			surface TEXT,
			capacity INTEGER DEFAULT 0,
			price_per_hour REAL DEFAULT 0,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recurring weekly schedule rules; weekday is 1 (Monday) .. 7 (Sunday)
		`CREATE TABLE IF NOT EXISTS schedule_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			interval_minutes INTEGER NOT NULL DEFAULT 60,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (facility_id) REFERENCES facilities(id) ON DELETE CASCADE
		)`,

		// Holiday calendar (process-wide reference table)
		`CREATE TABLE IF NOT EXISTS holidays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT UNIQUE NOT NULL,
			description TEXT,
			is_workday BOOLEAN NOT NULL DEFAULT 0
		)`,

		// Reservations; date is YYYY-MM-DD, time is HH:MM
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (facility_id) REFERENCES facilities(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,

		// Audit trail of reservation lifecycle events
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			reservation_id INTEGER NOT NULL DEFAULT 0,
			facility_id INTEGER NOT NULL DEFAULT 0,
			user_id INTEGER NOT NULL DEFAULT 0,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One confirmed reservation per slot; the correctness guard for
		// concurrent Create calls
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_confirmed_slot
			ON reservations(facility_id, date, time) WHERE status = 'confirmed'`,

		// One confirmed reservation per user per day, platform-wide
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_confirmed_user_day
			ON reservations(user_id, date) WHERE status = 'confirmed'`,

		// Lookup indexes
		`CREATE INDEX IF NOT EXISTS idx_rules_facility_weekday ON schedule_rules(facility_id, weekday)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_facility_date ON reservations(facility_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// mapConstraintError translates a unique-index violation on the
// reservations table into the matching domain sentinel.
func mapConstraintError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "reservations.facility_id"):
		return ErrSlotTaken
	case strings.Contains(msg, "reservations.user_id"):
		return ErrUserAlreadyBooked
	default:
		return err
	}
}
