package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ckd_auth_service/internal/models"
)

type PostgresSessionStore struct {
	db    DBTX
	table string
}

func NewPostgresSessionStore(db DBTX, table string) *PostgresSessionStore {
	return &PostgresSessionStore{db: db, table: table}
}

func (p *PostgresSessionStore) CreateSession(ctx context.Context, session models.Session) error {
	const op = "storage.CreateSession"

	query := fmt.Sprintf(`INSERT INTO %s(token, subject_id, email, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5)`, p.table)

	_, err := p.db.ExecContext(ctx, query, session.Token, session.SubjectID, session.Email, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetSession returns the stored record as is; callers decide whether it has expired.
func (p *PostgresSessionStore) GetSession(ctx context.Context, token string) (models.Session, error) {
	const op = "storage.GetSession"

	var session models.Session
	query := fmt.Sprintf(`SELECT token, subject_id, email, created_at, expires_at
	FROM %s WHERE token=$1`, p.table)

	err := p.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token,
		&session.SubjectID,
		&session.Email,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (p *PostgresSessionStore) DeleteSession(ctx context.Context, token string) error {
	const op = "storage.DeleteSession"

	query := fmt.Sprintf("DELETE FROM %s WHERE token=$1", p.table)
	if _, err := p.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (p *PostgresSessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.DeleteExpiredSessions"

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at <= $1", p.table)

	res, err := p.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (p *PostgresSessionStore) CountActiveSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.CountActiveSessions"

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE expires_at > $1", p.table)

	if err := p.db.QueryRowContext(ctx, query, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
