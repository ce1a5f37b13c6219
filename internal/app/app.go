// Package app assembles stores and services from configuration. Both the
// HTTP server and the operator CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ckd_auth_service/internal/config"
	"ckd_auth_service/internal/reaper"
	"ckd_auth_service/internal/service"
	"ckd_auth_service/internal/storage"
	"ckd_auth_service/internal/storage/memstore"
	"ckd_auth_service/internal/storage/redisstore"
)

const (
	realmUser  = "user"
	realmAdmin = "admin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores is everything the services persist to.
type Stores struct {
	Users         storage.AccountStore
	Admins        storage.AccountStore
	UserSessions  storage.SessionStore
	AdminSessions storage.SessionStore
	Predictions   service.PredictionCounter

	// Pingers are checked by the health endpoint, in order.
	Pingers []Pinger
	// Migrate applies schema migrations; nil when the stores need none.
	Migrate func(ctx context.Context) error
	// Closers run in reverse order on Close.
	Closers []func() error
}

type App struct {
	Users         *service.AuthService
	Admins        *service.AdminService
	UserSessions  *service.SessionManager
	AdminSessions *service.SessionManager

	stores Stores
}

// New opens Postgres, picks the session backend and assembles the services.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return Assemble(cfg, stores, log), nil
}

func OpenStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (Stores, error) {
	const op = "app.OpenStores"

	st, err := storage.NewPostgresStorage(ctx, cfg.DbURL, storage.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return Stores{}, fmt.Errorf("%s: %w", op, err)
	}

	stores := Stores{
		Users:       st.Users(),
		Admins:      st.Admins(),
		Predictions: st.Predictions(),
		Pingers:     []Pinger{st},
		Migrate:     st.Migrate,
		Closers:     []func() error{st.Close},
	}

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			_ = st.Close()
			return Stores{}, fmt.Errorf("%s: %w", op, err)
		}

		stores.UserSessions = redisstore.NewSessionStore(client, realmUser)
		stores.AdminSessions = redisstore.NewSessionStore(client, realmAdmin)
		stores.Pingers = append(stores.Pingers, redisPinger{client: client})
		stores.Closers = append(stores.Closers, client.Close)

		log.Info("sessions stored in redis", slog.String("addr", cfg.RedisAddr))
	case config.SessionBackendMemory:
		stores.UserSessions = memstore.NewSessions()
		stores.AdminSessions = memstore.NewSessions()

		log.Warn("sessions kept in memory and lost on restart")
	default:
		stores.UserSessions = st.UserSessions()
		stores.AdminSessions = st.AdminSessions()
	}

	return stores, nil
}

func Assemble(cfg *config.Config, stores Stores, log *slog.Logger) *App {
	userSessions := service.NewSessionManager(stores.UserSessions, service.DefaultSessionTTL, log)
	adminSessions := service.NewSessionManager(stores.AdminSessions, service.DefaultSessionTTL, log)

	users := service.NewAuthService(stores.Users, userSessions, log)
	adminAuth := service.NewAuthService(stores.Admins, adminSessions, log)

	return &App{
		Users:         users,
		Admins:        service.NewAdminService(adminAuth, cfg.AdminCode, stores.Users, userSessions, stores.Predictions),
		UserSessions:  userSessions,
		AdminSessions: adminSessions,
		stores:        stores,
	}
}

// Reaper sweeps both realms every interval.
func (a *App) Reaper(cfg *config.Config, log *slog.Logger) *reaper.Reaper {
	return reaper.New(cfg.SweepInterval, log,
		reaper.Target{Name: realmUser, Sweeper: a.UserSessions},
		reaper.Target{Name: realmAdmin, Sweeper: a.AdminSessions},
	)
}

func (a *App) Migrate(ctx context.Context) error {
	if a.stores.Migrate == nil {
		return nil
	}

	return a.stores.Migrate(ctx)
}

func (a *App) Ping(ctx context.Context) error {
	for _, p := range a.stores.Pingers {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.stores.Closers) - 1; i >= 0; i-- {
		if err := a.stores.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
