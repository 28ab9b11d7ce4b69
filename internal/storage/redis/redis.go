package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"contacts_auth/internal/models"
	"contacts_auth/internal/storage"

	"github.com/redis/go-redis/v9"
)

// RedisRepo keeps sessions under three keys: the record itself by session id,
// plus user-id and access-token indexes pointing at the id. All three expire
// with the refresh token, so stale sessions vanish without a sweeper.
type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

func sessionKey(id string) string   { return fmt.Sprintf("session:%s", id) }
func userKey(userID string) string  { return fmt.Sprintf("session:user:%s", userID) }
func accessKey(token string) string { return fmt.Sprintf("session:access:%s", token) }

// ReplaceSession drops the user's previous session, if any, and writes the new
// one. Two concurrent replacements for the same user race benignly: last write
// wins and exactly one session stays resolvable.
func (r *RedisRepo) ReplaceSession(ctx context.Context, s models.Session) error {
	const op = "storage.redis.ReplaceSession"

	old, err := r.sessionByIndex(ctx, userKey(s.UserID))
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ttl := time.Until(s.RefreshTokenValidUntil)

	pipe := r.client.Pipeline()
	if old.ID != "" {
		pipe.Del(ctx, sessionKey(old.ID), accessKey(old.AccessToken))
	}
	pipe.Set(ctx, sessionKey(s.ID), body, ttl)
	pipe.Set(ctx, userKey(s.UserID), s.ID, ttl)
	pipe.Set(ctx, accessKey(s.AccessToken), s.ID, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) SessionByID(ctx context.Context, id string) (models.Session, error) {
	const op = "storage.redis.SessionByID"

	body, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, storage.ErrSessionNotFound
		}

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	var s models.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (r *RedisRepo) SessionByAccessToken(ctx context.Context, accessToken string) (models.Session, error) {
	const op = "storage.redis.SessionByAccessToken"

	s, err := r.sessionByIndex(ctx, accessKey(accessToken))
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return models.Session{}, err
		}

		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

func (r *RedisRepo) DeleteSessionByID(ctx context.Context, id string) error {
	const op = "storage.redis.DeleteSessionByID"

	s, err := r.SessionByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.client.Del(ctx, sessionKey(s.ID), userKey(s.UserID), accessKey(s.AccessToken)).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) DeleteSessionByUserID(ctx context.Context, userID string) error {
	const op = "storage.redis.DeleteSessionByUserID"

	id, err := r.client.Get(ctx, userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return r.DeleteSessionByID(ctx, id)
}

func (r *RedisRepo) Close() {
	r.client.Close()
}

func (r *RedisRepo) sessionByIndex(ctx context.Context, indexKey string) (models.Session, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, storage.ErrSessionNotFound
		}

		return models.Session{}, err
	}

	return r.SessionByID(ctx, id)
}
