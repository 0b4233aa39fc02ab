package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canchapp/internal/models"
)

// GetFacility returns a facility by id, or (nil, nil) when it does not exist.
func (db *DB) GetFacility(ctx context.Context, id int64) (*models.Facility, error) {
	var f models.Facility
	err := db.QueryRowContext(ctx, `
		SELECT id, name, address, surface, capacity, price_per_hour,
		       description, is_active, created_at, updated_at
		FROM facilities
		WHERE id = ?`,
		id,
	).Scan(
		&f.ID, &f.Name, &f.Address, &f.Surface, &f.Capacity, &f.PricePerHour,
		&f.Description, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get facility %d: %w", id, err)
	}
	return &f, nil
}

// ListActiveFacilities returns all facilities available for booking.
func (db *DB) ListActiveFacilities(ctx context.Context) ([]models.Facility, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, address, surface, capacity, price_per_hour,
		       description, is_active, created_at, updated_at
		FROM facilities
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []models.Facility
	for rows.Next() {
		var f models.Facility
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Address, &f.Surface, &f.Capacity, &f.PricePerHour,
			&f.Description, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// CreateFacility inserts a facility and fills in its generated id.
func (db *DB) CreateFacility(ctx context.Context, f *models.Facility) error {
	if f == nil {
		return fmt.Errorf("facility is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO facilities (name, address, surface, capacity, price_per_hour,
		                        description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Address, f.Surface, f.Capacity, f.PricePerHour,
		f.Description, f.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("create facility: %w", err)
	}

	f.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// DeactivateFacility hides a facility from listings and availability.
// Its schedule rules stay in place until the facility is deleted.
func (db *DB) DeactivateFacility(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE facilities SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	return err
}

// DeleteFacility removes a facility; schedule rules cascade via FK.
func (db *DB) DeleteFacility(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, "DELETE FROM facilities WHERE id = ?", id)
	return err
}
