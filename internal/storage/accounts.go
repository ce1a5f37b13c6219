package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ckd_auth_service/internal/models"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgconn"
)

const uniqueViolation = "23505"

type PostgresAccountStore struct {
	db    DBTX
	table string
}

func NewPostgresAccountStore(db DBTX, table string) *PostgresAccountStore {
	return &PostgresAccountStore{db: db, table: table}
}

func (p *PostgresAccountStore) CreateAccount(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	const op = "storage.CreateAccount"

	var id uuid.UUID
	query := fmt.Sprintf("INSERT INTO %s(name, email, password_hash) VALUES ($1, $2, $3) RETURNING id;", p.table)

	err := p.db.QueryRowContext(ctx, query, name, email, passwordHash).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return id, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return id, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (p *PostgresAccountStore) GetAccountByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.GetAccountByEmail"

	query := fmt.Sprintf("SELECT id, name, email, password_hash, created_at, updated_at FROM %s WHERE email=$1;", p.table)

	user, err := scanUser(p.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (p *PostgresAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	const op = "storage.GetAccountByID"

	query := fmt.Sprintf("SELECT id, name, email, password_hash, created_at, updated_at FROM %s WHERE id=$1;", p.table)

	user, err := scanUser(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return user, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ListAccounts returns every account, newest first. Password hashes are not selected.
func (p *PostgresAccountStore) ListAccounts(ctx context.Context) ([]models.User, error) {
	const op = "storage.ListAccounts"

	users := []models.User{}
	query := fmt.Sprintf("SELECT id, name, email, created_at, updated_at FROM %s ORDER BY created_at DESC;", p.table)

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return users, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User

		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return users, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s (rows): %w", op, err)
	}

	return users, nil
}

func (p *PostgresAccountStore) CountAccounts(ctx context.Context) (int64, error) {
	const op = "storage.CountAccounts"

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s;", p.table)

	if err := p.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}

	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
