package repositories

import (
	"context"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresIdempotencyRepository struct {
	exec SQLExecutor
}

func NewPostgresIdempotencyRepository(exec SQLExecutor) IdempotencyRepository {
	return &postgresIdempotencyRepository{exec: exec}
}

func (r *postgresIdempotencyRepository) Exists(ctx context.Context, matchID int, operation, key string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM match_idempotency WHERE match_id = $1 AND operation = $2 AND idempotency_key = $3
		)`
	var exists bool
	err := r.exec.QueryRowContext(ctx, query, matchID, operation, key).Scan(&exists)
	return exists, err
}

func (r *postgresIdempotencyRepository) Record(ctx context.Context, rec *models.IdempotencyRecord) error {
	query := `
		INSERT INTO match_idempotency (match_id, operation, idempotency_key)
		VALUES ($1, $2, $3)
		RETURNING created_at`
	err := r.exec.QueryRowContext(ctx, query, rec.MatchID, rec.Operation, rec.Key).Scan(&rec.CreatedAt)
	return constraintError(err, map[string]error{
		"match_idempotency_pkey":          ErrIdempotencyKeyRecorded,
		"match_idempotency_match_id_fkey": ErrMatchNotFound,
	})
}
