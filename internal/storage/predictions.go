package storage

import (
	"context"
	"fmt"
)

// PostgresPredictionStore reads the predictions table written by the prediction pipeline.
type PostgresPredictionStore struct {
	db DBTX
}

func NewPostgresPredictionStore(db DBTX) *PostgresPredictionStore {
	return &PostgresPredictionStore{db: db}
}

func (p *PostgresPredictionStore) CountPredictions(ctx context.Context) (int64, error) {
	const op = "storage.CountPredictions"

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s;", predictionsTable)

	if err := p.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
