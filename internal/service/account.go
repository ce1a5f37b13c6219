package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ckd_auth_service/internal/auth"
	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage"
)

// AuthService runs signup, login, logout and verify for one realm: an
// account table paired with its own session store.
type AuthService struct {
	accounts storage.AccountStore
	sessions *SessionManager
	log      *slog.Logger

	hashCost  int
	dummyOnce sync.Once
	dummyHash string
	dummyErr  error
}

func NewAuthService(accounts storage.AccountStore, sessions *SessionManager, log *slog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		log:      log,
		hashCost: auth.PasswordCost,
	}
}

// WithHashCost overrides the bcrypt cost. Only tests go below auth.MinPasswordCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

// dummy returns the hash compared against when no account matches. It is built
// once, at the service's own cost.
func (s *AuthService) dummy() (string, error) {
	s.dummyOnce.Do(func() {
		s.dummyHash, s.dummyErr = auth.DummyHash(s.hashCost)
	})
	return s.dummyHash, s.dummyErr
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (models.Profile, string, error) {
	const op = "service.Signup"

	in, err := validateSignup(name, email, password)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	passwordHash, err := auth.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.accounts.CreateAccount(ctx, in.Name, in.Email, passwordHash)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return models.Profile{}, "", fmt.Errorf("%s: %w", op, ErrDuplicateEmail)
		}
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.sessions.Create(ctx, id, in.Email)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return models.Profile{ID: id, Name: in.Name, Email: in.Email}, session.Token, nil
}

// Login checks the credentials and opens a fresh session. An unknown email
// and a wrong password fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Profile, string, error) {
	const op = "service.Login"

	in, err := validateLogin(email, password)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	dummy, err := s.dummy()
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.accounts.GetAccountByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	if ok := auth.CheckPasswordOrDummy(user.PasswordHash, dummy, in.Password); !ok {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	session, err := s.sessions.Create(ctx, user.ID, user.Email)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, err)
	}

	return user.Profile(), session.Token, nil
}

// Logout ends the session behind token. It never fails: a missing token is a
// no-op and store errors are only logged.
func (s *AuthService) Logout(ctx context.Context, token string) {
	const op = "service.Logout"

	if token == "" {
		return
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		s.log.Error("failed to delete session", slog.String("op", op), slog.Any("error", err))
	}
}

func (s *AuthService) Verify(ctx context.Context, token string) (models.Profile, error) {
	const op = "service.Verify"

	if token == "" {
		return models.Profile{}, ErrNoToken
	}

	session, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.accounts.GetAccountByID(ctx, session.SubjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, fmt.Errorf("%s: %w", op, ErrSubjectNotFound)
		}
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return user.Profile(), nil
}
