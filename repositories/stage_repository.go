package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresStageRepository struct {
	exec SQLExecutor
}

func NewPostgresStageRepository(exec SQLExecutor) StageRepository {
	return &postgresStageRepository{exec: exec}
}

var stageConstraints = map[string]error{
	"stages_tournament_order_key": ErrStageOrderConflict,
	"stages_tournament_id_fkey":   ErrTournamentNotFound,
}

const stageColumns = `id, tournament_id, name, stage_order, format, advancement_type, advancement_count, state,
	settings_json, activated_at, completed_at, advanced_ids, eliminated_ids, created_at`

func (r *postgresStageRepository) Create(ctx context.Context, s *models.Stage) error {
	query := `
		INSERT INTO stages (tournament_id, name, stage_order, format, advancement_type, advancement_count, state, settings_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	if s.State == "" {
		s.State = models.StagePending
	}
	err := r.exec.QueryRowContext(ctx, query,
		s.TournamentID, s.Name, s.Order, s.Format, s.Advancement.Type, s.Advancement.Count, s.State, s.SettingsJSON,
	).Scan(&s.ID, &s.CreatedAt)
	return constraintError(err, stageConstraints)
}

func (r *postgresStageRepository) scanStage(row rowScanner) (*models.Stage, error) {
	var s models.Stage
	var advanced, eliminated []int64
	err := row.Scan(&s.ID, &s.TournamentID, &s.Name, &s.Order, &s.Format, &s.Advancement.Type, &s.Advancement.Count,
		&s.State, &s.SettingsJSON, &s.ActivatedAt, &s.CompletedAt, pq.Array(&advanced), pq.Array(&eliminated), &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	s.AdvancedIDs = fromInt64s(advanced)
	s.EliminatedIDs = fromInt64s(eliminated)
	return &s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = $1`
	return r.scanStage(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresStageRepository) GetByOrder(ctx context.Context, tournamentID, order int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 AND stage_order = $2`
	return r.scanStage(r.exec.QueryRowContext(ctx, query, tournamentID, order))
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 ORDER BY stage_order ASC`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		s, err := r.scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) Update(ctx context.Context, s *models.Stage) error {
	query := `
		UPDATE stages SET
			name = $1, format = $2, advancement_type = $3, advancement_count = $4, state = $5,
			settings_json = $6, activated_at = $7, completed_at = $8, advanced_ids = $9, eliminated_ids = $10
		WHERE id = $11`
	result, err := r.exec.ExecContext(ctx, query,
		s.Name, s.Format, s.Advancement.Type, s.Advancement.Count, s.State, s.SettingsJSON,
		s.ActivatedAt, s.CompletedAt, pq.Array(toInt64s(s.AdvancedIDs)), pq.Array(toInt64s(s.EliminatedIDs)), s.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: stage %d: %w", s.ID, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}
