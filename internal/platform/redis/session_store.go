// Package redis implements cache-backed stores on top of Redis. It currently
// holds the review-session store; sessions are ephemeral by nature, so they
// live here rather than in PostgreSQL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/slowka/slowka-api/internal/platform/logger"
	"github.com/slowka/slowka-api/internal/store"
)

// sessionKeyPrefix namespaces session keys so the Redis instance can be
// shared with other consumers.
const sessionKeyPrefix = "slowka:session:"

// SessionStore implements store.SessionStore on top of a Redis client.
type SessionStore struct {
	client *redis.Client
}

// Ensure SessionStore implements store.SessionStore interface
var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a Redis-backed session store. The client should be
// initialized and managed by the caller.
func NewSessionStore(client *redis.Client) *SessionStore {
	if client == nil {
		panic("client must not be nil")
	}
	return &SessionStore{client: client}
}

// NewClient dials Redis at the given address and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return client, nil
}

func sessionKey(userID uuid.UUID) string {
	return sessionKeyPrefix + userID.String()
}

// Save implements store.SessionStore.Save
func (s *SessionStore) Save(ctx context.Context, session *store.ReviewSession, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.UserID), data, ttl).Err(); err != nil {
		log.Error("failed to save session",
			"user_id", session.UserID,
			"error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get implements store.SessionStore.Get
func (s *SessionStore) Get(ctx context.Context, userID uuid.UUID) (*store.ReviewSession, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: session", store.ErrNotFound)
		}
		logger.FromContext(ctx).Error("failed to load session",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session store.ReviewSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// Delete implements store.SessionStore.Delete
func (s *SessionStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		logger.FromContext(ctx).Error("failed to delete session",
			"user_id", userID,
			"error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
