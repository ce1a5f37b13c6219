package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"ckd_auth_service/internal/models"
	"ckd_auth_service/internal/storage"
)

type PredictionCounter interface {
	CountPredictions(ctx context.Context) (int64, error)
}

// AdminService is the admin realm. Enrollment needs the configured admin
// code; the dashboard reads from the user realm.
type AdminService struct {
	admins *AuthService
	code   string

	users        storage.AccountStore
	userSessions *SessionManager
	predictions  PredictionCounter
}

func NewAdminService(
	admins *AuthService,
	code string,
	users storage.AccountStore,
	userSessions *SessionManager,
	predictions PredictionCounter,
) *AdminService {
	return &AdminService{
		admins:       admins,
		code:         code,
		users:        users,
		userSessions: userSessions,
		predictions:  predictions,
	}
}

// Signup rejects a wrong admin code before looking at anything else.
func (s *AdminService) Signup(ctx context.Context, name, email, password, adminCode string) (models.Profile, string, error) {
	const op = "service.AdminSignup"

	if subtle.ConstantTimeCompare([]byte(adminCode), []byte(s.code)) != 1 {
		return models.Profile{}, "", fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return s.admins.Signup(ctx, name, email, password)
}

func (s *AdminService) Login(ctx context.Context, email, password string) (models.Profile, string, error) {
	return s.admins.Login(ctx, email, password)
}

func (s *AdminService) Logout(ctx context.Context, token string) {
	s.admins.Logout(ctx, token)
}

func (s *AdminService) Verify(ctx context.Context, token string) (models.Profile, error) {
	return s.admins.Verify(ctx, token)
}

func (s *AdminService) Stats(ctx context.Context) (models.Stats, error) {
	const op = "service.Stats"

	var (
		stats models.Stats
		err   error
	)

	if stats.TotalUsers, err = s.users.CountAccounts(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if stats.TotalPredictions, err = s.predictions.CountPredictions(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if stats.ActiveSessions, err = s.userSessions.CountActive(ctx); err != nil {
		return models.Stats{}, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

// ListUsers returns every user, newest first, without password hashes.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "service.ListUsers"

	users, err := s.users.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range users {
		users[i].PasswordHash = ""
	}

	return users, nil
}
