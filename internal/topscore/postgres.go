package topscore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const (
	getTopScoreSQL = `SELECT score FROM top_score WHERE key = $1`

	// The conflict branch only fires for a strictly higher score; otherwise
	// no row is returned.
	setTopScoreSQL = `
		INSERT INTO top_score (key, score, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
			SET score = EXCLUDED.score, updated_at = now()
			WHERE top_score.score < EXCLUDED.score
		RETURNING score`
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the best score in the top_score table
// (see db/migrations).
type PostgresStore struct {
	db  querier
	key string
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db querier, key string) *PostgresStore {
	if key == "" {
		key = DefaultKey
	}
	return &PostgresStore{db: db, key: key}
}

func (s *PostgresStore) Get(ctx context.Context) (int, bool, error) {
	var score int
	err := s.db.QueryRow(ctx, getTopScoreSQL, s.key).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get top score: %w", err)
	}
	return score, true, nil
}

func (s *PostgresStore) SetIfHigher(ctx context.Context, score int) (int, bool, error) {
	var stored int
	err := s.db.QueryRow(ctx, setTopScoreSQL, s.key, score).Scan(&stored)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("set top score: %w", err)
	}

	best, _, err := s.Get(ctx)
	if err != nil {
		return 0, false, err
	}
	return best, false, nil
}
