package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ckd_auth_service/internal/models"

	"github.com/gofrs/uuid"
	_ "github.com/jackc/pgx/v4/stdlib"
)

const (
	usersTable         = "users"
	sessionsTable      = "sessions"
	adminsTable        = "admins"
	adminSessionsTable = "admin_sessions"
	predictionsTable   = "predictions"
)

// AccountStore persists users or admins, depending on the table it is bound to.
type AccountStore interface {
	CreateAccount(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetAccountByEmail(ctx context.Context, email string) (models.User, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (models.User, error)
	ListAccounts(ctx context.Context) ([]models.User, error)
	CountAccounts(ctx context.Context) (int64, error)
}

// SessionStore persists sessions keyed by token.
// DeleteSession of an absent token is not an error.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, token string) (models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	CountActiveSessions(ctx context.Context, now time.Time) (int64, error)
}

// DBTX is the subset of database/sql used by the stores; *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresStorage owns the connection pool and vends the per-table stores.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, dbURL string, opts PoolOptions) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresStorage{db: db}, nil
}

// NewPostgresStorageFromDB wraps an existing handle.
func NewPostgresStorageFromDB(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (p *PostgresStorage) DB() *sql.DB {
	return p.db
}

func (p *PostgresStorage) Users() *PostgresAccountStore {
	return NewPostgresAccountStore(p.db, usersTable)
}

func (p *PostgresStorage) Admins() *PostgresAccountStore {
	return NewPostgresAccountStore(p.db, adminsTable)
}

func (p *PostgresStorage) UserSessions() *PostgresSessionStore {
	return NewPostgresSessionStore(p.db, sessionsTable)
}

func (p *PostgresStorage) AdminSessions() *PostgresSessionStore {
	return NewPostgresSessionStore(p.db, adminSessionsTable)
}

func (p *PostgresStorage) Predictions() *PostgresPredictionStore {
	return NewPostgresPredictionStore(p.db)
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	const op = "storage.Ping"

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *PostgresStorage) Close() error {
	return p.db.Close()
}
