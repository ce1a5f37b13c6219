package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ckd_auth_service/internal/auth"
	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage"

	"github.com/gofrs/uuid"
)

// DefaultSessionTTL is how long a session stays valid after login or signup.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionManager issues and resolves sessions for one realm.
// Expiry is checked on every read; Sweep removes whatever reads never touched.
type SessionManager struct {
	store storage.SessionStore
	ttl   time.Duration
	log   *slog.Logger

	now      func() time.Time
	newToken func() (string, error)
}

func NewSessionManager(store storage.SessionStore, ttl time.Duration, log *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionManager{
		store:    store,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		newToken: auth.GenerateToken,
	}
}

// WithClock replaces the clock used for issuing and expiring sessions.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

func (m *SessionManager) Create(ctx context.Context, subjectID uuid.UUID, email string) (models.Session, error) {
	const op = "service.SessionManager.Create"

	token, err := m.newToken()
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	now := m.now().UTC()
	session := models.Session{
		Token:     token,
		SubjectID: subjectID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.store.CreateSession(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// Lookup resolves token to a live session. An expired record is deleted on the spot.
// Tokens GenerateToken could not have produced never reach the store.
func (m *SessionManager) Lookup(ctx context.Context, token string) (models.Session, error) {
	const op = "service.SessionManager.Lookup"

	if !auth.WellFormedToken(token) {
		return models.Session{}, ErrInvalidToken
	}

	session, err := m.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Session{}, ErrInvalidToken
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if session.Expired(m.now()) {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			m.log.Warn("failed to delete expired session", slog.String("op", op), slog.Any("error", err))
		}
		return models.Session{}, ErrTokenExpired
	}

	return session, nil
}

func (m *SessionManager) Delete(ctx context.Context, token string) error {
	const op = "service.SessionManager.Delete"

	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Sweep deletes every session expired as of now and reports how many went.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	const op = "service.SessionManager.Sweep"

	n, err := m.store.DeleteExpiredSessions(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (m *SessionManager) CountActive(ctx context.Context) (int64, error) {
	const op = "service.SessionManager.CountActive"

	n, err := m.store.CountActiveSessions(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
