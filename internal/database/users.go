package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"canchapp/internal/models"
)

// GetUserByID returns a user, or (nil, nil) when missing.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, name, telegram_chat_id, is_active, created_at
		FROM users
		WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.TelegramChatID, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email, or (nil, nil) when missing.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, name, telegram_chat_id, is_active, created_at
		FROM users
		WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.TelegramChatID, &u.IsActive, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user and fills in its generated id.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (email, name, telegram_chat_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.TelegramChatID, u.IsActive, now,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	u.CreatedAt = now
	return nil
}

// SetUserTelegramChat links a telegram chat for reminder delivery.
func (db *DB) SetUserTelegramChat(ctx context.Context, userID, chatID int64) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET telegram_chat_id = ? WHERE id = ?",
		chatID, userID,
	)
	return err
}
