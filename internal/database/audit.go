package database

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one recorded reservation lifecycle event.
type AuditEntry struct {
	ID            int64     `json:"id"`
	EventType     string    `json:"event_type"`
	ReservationID int64     `json:"reservation_id"`
	FacilityID    int64     `json:"facility_id"`
	UserID        int64     `json:"user_id"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// InsertAuditEntry appends one event to the audit trail.
func (db *DB) InsertAuditEntry(ctx context.Context, e *AuditEntry) error {
	if e == nil {
		return fmt.Errorf("audit entry is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, reservation_id, facility_id, user_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventType, e.ReservationID, e.FacilityID, e.UserID, e.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	e.CreatedAt = now
	return nil
}

// ListAuditEntries returns audit events recorded in [from, to).
func (db *DB) ListAuditEntries(ctx context.Context, from, to time.Time) ([]AuditEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, event_type, reservation_id, facility_id, user_id, detail, created_at
		FROM audit_log
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EventType, &e.ReservationID, &e.FacilityID, &e.UserID,
			&e.Detail, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOldAuditEntries trims the audit trail to the retention window.
func (db *DB) DeleteOldAuditEntries(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("delete old audit entries: %w", err)
	}
	return res.RowsAffected()
}
