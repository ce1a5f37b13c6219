// Package memstore holds accounts and sessions in process memory. Nothing
// survives a restart; it backs the memory session backend and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage"

	"github.com/gofrs/uuid"
)

var (
	_ storage.AccountStore = (*Accounts)(nil)
	_ storage.SessionStore = (*Sessions)(nil)
)

type Accounts struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]models.User
	now  func() time.Time
}

func NewAccounts() *Accounts {
	return &Accounts{byID: make(map[uuid.UUID]models.User), now: time.Now}
}

// WithClock sets the clock used for created_at and updated_at.
func (a *Accounts) WithClock(now func() time.Time) *Accounts {
	a.now = now
	return a
}

func (a *Accounts) CreateAccount(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, user := range a.byID {
		if user.Email == email {
			return uuid.Nil, storage.ErrEmailTaken
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}

	now := a.now()
	a.byID[id] = models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return id, nil
}

func (a *Accounts) GetAccountByEmail(_ context.Context, email string) (models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for _, user := range a.byID {
		if user.Email == email {
			return user, nil
		}
	}

	return models.User{}, storage.ErrNotFound
}

func (a *Accounts) GetAccountByID(_ context.Context, id uuid.UUID) (models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	user, ok := a.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}

	return user, nil
}

func (a *Accounts) ListAccounts(_ context.Context) ([]models.User, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	users := make([]models.User, 0, len(a.byID))
	for _, user := range a.byID {
		users = append(users, user)
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	return users, nil
}

func (a *Accounts) CountAccounts(_ context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return int64(len(a.byID)), nil
}

// Remove drops an account without touching its sessions.
func (a *Accounts) Remove(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.byID, id)
}

type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]models.Session)}
}

func (s *Sessions) CreateSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = session

	return nil
}

func (s *Sessions) GetSession(_ context.Context, token string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, storage.ErrNotFound
	}

	return session, nil
}

func (s *Sessions) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)

	return nil
}

func (s *Sessions) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			n++
		}
	}

	return n, nil
}

func (s *Sessions) CountActiveSessions(_ context.Context, now time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, session := range s.sessions {
		if !session.Expired(now) {
			n++
		}
	}

	return n, nil
}

// Has reports whether a record for token is stored, expired or not.
func (s *Sessions) Has(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[token]
	return ok
}

// Predictions is a fixed prediction count.
type Predictions int64

func (p Predictions) CountPredictions(context.Context) (int64, error) {
	return int64(p), nil
}
