// Package auth resolves bearer tokens to authenticated users. Sessions live
// in redis with a sliding TTL; the token itself is an opaque UUID.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound means the token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is what a valid token resolves to.
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions in redis under "session:<token>".
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionStore wires a store with the given session lifetime.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create opens a session for the user and returns its token.
func (s *SessionStore) Create(ctx context.Context, userID int64, email string) (string, error) {
	session := Session{
		UserID:    userID,
		Email:     email,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve returns the session behind a token and refreshes its TTL.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	// Sliding expiration: activity keeps the session alive.
	_ = s.rdb.Expire(ctx, sessionKey(token), s.ttl).Err()

	return &session, nil
}

// Revoke deletes a session; revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
