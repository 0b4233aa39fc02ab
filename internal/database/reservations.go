package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canchapp/internal/models"
)

// InsertConfirmed writes a new confirmed reservation. The partial unique
// indexes on (facility_id, date, time) and (user_id, date) make the insert
// fail atomically when a concurrent request wins the slot; such failures
// come back as ErrSlotTaken or ErrUserAlreadyBooked.
func (db *DB) InsertConfirmed(ctx context.Context, r *models.Reservation) error {
	if r == nil {
		return fmt.Errorf("reservation is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO reservations (facility_id, user_id, date, time, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.FacilityID, r.UserID, r.Date, r.Time, models.StatusConfirmed, now, now,
	)
	if err != nil {
		return mapConstraintError(err)
	}

	r.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	r.Status = models.StatusConfirmed
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetReservation returns a reservation by id, or (nil, nil) when missing.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := db.QueryRowContext(ctx, `
		SELECT id, facility_id, user_id, date, time, status, created_at, updated_at
		FROM reservations
		WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.FacilityID, &r.UserID, &r.Date, &r.Time, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return &r, nil
}

// ListConfirmedTimes returns the occupied "HH:MM" times for a facility+date.
func (db *DB) ListConfirmedTimes(ctx context.Context, facilityID int64, date string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time FROM reservations
		WHERE facility_id = ? AND date = ? AND status = ?
		ORDER BY time`,
		facilityID, date, models.StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// HasConfirmedOnDate reports whether the user holds a confirmed reservation
// on the date, at any facility.
func (db *DB) HasConfirmedOnDate(ctx context.Context, userID int64, date string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE user_id = ? AND date = ? AND status = ?`,
		userID, date, models.StatusConfirmed,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check user reservations: %w", err)
	}
	return count > 0, nil
}

// UpdateReservationStatus transitions a reservation to a new status.
func (db *DB) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	res, err := db.ExecContext(ctx,
		"UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update reservation %d status: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListUserReservations returns all of a user's reservations, newest first.
func (db *DB) ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, facility_id, user_id, date, time, status, created_at, updated_at
		FROM reservations
		WHERE user_id = ?
		ORDER BY date DESC, time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user reservations: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ListConfirmedForDate returns every confirmed reservation on a date, across
// all facilities. Used by the reminder scheduler.
func (db *DB) ListConfirmedForDate(ctx context.Context, date string) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, facility_id, user_id, date, time, status, created_at, updated_at
		FROM reservations
		WHERE date = ? AND status = ?
		ORDER BY time`,
		date, models.StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed for date: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

// ListReservationsBetween returns reservations with date in [from, to],
// any status. Used by the audit exporter and sheets sync.
func (db *DB) ListReservationsBetween(ctx context.Context, from, to string) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, facility_id, user_id, date, time, status, created_at, updated_at
		FROM reservations
		WHERE date >= ? AND date <= ?
		ORDER BY date, time`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations between: %w", err)
	}
	defer rows.Close()
	return scanReservations(rows)
}

// FinalizeElapsed transitions the user's confirmed reservations whose slot
// has started to finalized. today is "YYYY-MM-DD" and nowTime "HH:MM" of the
// current instant; the time boundary is inclusive, matching the booking-side
// past rule. Returns the number of rows updated.
func (db *DB) FinalizeElapsed(ctx context.Context, userID int64, today, nowTime string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, updated_at = ?
		WHERE user_id = ? AND status = ?
		  AND (date < ? OR (date = ? AND time <= ?))`,
		models.StatusFinalized, time.Now(), userID, models.StatusConfirmed,
		today, today, nowTime,
	)
	if err != nil {
		return 0, fmt.Errorf("finalize elapsed: %w", err)
	}
	return res.RowsAffected()
}

// DeleteOldReservations removes terminal reservations older than the cutoff
// date. Used by the audit service's retention cleanup.
func (db *DB) DeleteOldReservations(ctx context.Context, before string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM reservations
		WHERE date < ? AND status IN (?, ?)`,
		before, models.StatusCancelled, models.StatusFinalized,
	)
	if err != nil {
		return 0, fmt.Errorf("delete old reservations: %w", err)
	}
	return res.RowsAffected()
}

func scanReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(
			&r.ID, &r.FacilityID, &r.UserID, &r.Date, &r.Time, &r.Status,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
