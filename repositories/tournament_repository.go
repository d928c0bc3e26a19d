package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func NewPostgresTournamentRepository(exec SQLExecutor) TournamentRepository {
	return &postgresTournamentRepository{exec: exec}
}

const tournamentColumns = `id, name, game_slug, format, participation_mode, status, current_stage_id, created_at, updated_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, game_slug, format, participation_mode, status, current_stage_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	if t.Status == "" {
		t.Status = models.StatusDraft
	}
	return r.exec.QueryRowContext(ctx, query,
		t.Name, t.GameSlug, t.Format, t.ParticipationMode, t.Status, t.CurrentStageID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *postgresTournamentRepository) scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(&t.ID, &t.Name, &t.GameSlug, &t.Format, &t.ParticipationMode, &t.Status,
		&t.CurrentStageID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanTournament(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) UpdateProgress(ctx context.Context, id int, status models.TournamentStatus, currentStageID *int) error {
	query := `UPDATE tournaments SET status = $1, current_stage_id = $2, updated_at = NOW() WHERE id = $3`
	result, err := r.exec.ExecContext(ctx, query, status, currentStageID, id)
	if err != nil {
		return fmt.Errorf("UpdateProgress: tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
