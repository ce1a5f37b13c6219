package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage/memstore"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("store down")

// failingAccounts fails the calls that create or look up by email.
type failingAccounts struct {
	*memstore.Accounts
	err error
}

func (f failingAccounts) CreateAccount(context.Context, string, string, string) (uuid.UUID, error) {
	return uuid.Nil, f.err
}

func (f failingAccounts) GetAccountByEmail(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}

type failingDeletes struct {
	*memstore.Sessions
	err error
}

func (f failingDeletes) DeleteSession(context.Context, string) error {
	return f.err
}

// failingGets fails every session read.
type failingGets struct {
	*memstore.Sessions
	err error
}

func (f failingGets) GetSession(context.Context, string) (models.Session, error) {
	return models.Session{}, f.err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type realm struct {
	accounts *memstore.Accounts
	sessions *memstore.Sessions
	manager  *SessionManager
	svc      *AuthService
}

func newRealm(clock *fakeClock) realm {
	accounts := memstore.NewAccounts().WithClock(clock.Now)
	sessions := memstore.NewSessions()

	manager := NewSessionManager(sessions, DefaultSessionTTL, discardLogger()).WithClock(clock.Now)
	svc := NewAuthService(accounts, manager, discardLogger()).WithHashCost(bcrypt.MinCost)

	return realm{accounts: accounts, sessions: sessions, manager: manager, svc: svc}
}
