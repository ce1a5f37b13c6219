// Package redisstore keeps sessions in Redis. Each session is a JSON value
// with a native TTL; a per-realm sorted set scored by expiry time backs
// counting and sweeping.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage"

	"github.com/go-redis/redis/v8"
)

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewClient connects to Redis and checks the connection with a ping.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	const op = "redisstore.NewClient"

	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

type SessionStore struct {
	client redis.Cmdable
	realm  string
	now    func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client redis.Cmdable, realm string) *SessionStore {
	return &SessionStore{client: client, realm: realm, now: time.Now}
}

func (s *SessionStore) sessionKey(token string) string {
	return "session:" + s.realm + ":" + token
}

func (s *SessionStore) indexKey() string {
	return "sessions:" + s.realm + ":expiry"
}

// Expiry scores are unix milliseconds.
func unixScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (s *SessionStore) CreateSession(ctx context.Context, session models.Session) error {
	const op = "redisstore.CreateSession"

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.Token), string(data), ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.client.ZAdd(ctx, s.indexKey(), &redis.Z{
		Score:  float64(session.ExpiresAt.UnixMilli()),
		Member: session.Token,
	}).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, token string) (models.Session, error) {
	const op = "redisstore.GetSession"

	data, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	const op = "redisstore.DeleteSession"

	if err := s.client.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.client.ZRem(ctx, s.indexKey(), token).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredSessions drops index entries at or before now along with any
// values Redis has not expired yet. It returns the number of index entries removed.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "redisstore.DeleteExpiredSessions"

	maxScore := unixScore(now)

	tokens, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(tokens))
	for _, token := range tokens {
		keys = append(keys, s.sessionKey(token))
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", maxScore).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (s *SessionStore) CountActiveSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "redisstore.CountActiveSessions"

	n, err := s.client.ZCount(ctx, s.indexKey(), "("+unixScore(now), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
