package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresGroupRepository struct {
	exec SQLExecutor
}

func NewPostgresGroupRepository(exec SQLExecutor) GroupRepository {
	return &postgresGroupRepository{exec: exec}
}

var groupConstraints = map[string]error{
	"stage_groups_stage_id_fkey":   ErrStageNotFound,
	"stage_groups_capacity_check":  ErrGroupCapacityExceeded,
	"stage_groups_stage_order_key": ErrStageOrderConflict,
}

const groupColumns = `id, stage_id, tournament_id, name, display_order, capacity, advancement_count,
	current_participant_count, draw_strategy, draw_seed, draw_hash, is_finalized,
	points_win, points_draw, points_loss, tiebreakers, best_of, created_at`

func tiebreakerStrings(tbs []models.Tiebreaker) []string {
	out := make([]string, len(tbs))
	for i, tb := range tbs {
		out[i] = string(tb)
	}
	return out
}

func (r *postgresGroupRepository) Create(ctx context.Context, g *models.Group) error {
	query := `
		INSERT INTO stage_groups
			(stage_id, tournament_id, name, display_order, capacity, advancement_count, current_participant_count,
			 draw_strategy, draw_seed, draw_hash, is_finalized, points_win, points_draw, points_loss, tiebreakers, best_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`
	err := r.exec.QueryRowContext(ctx, query,
		g.StageID, g.TournamentID, g.Name, g.DisplayOrder, g.Capacity, g.AdvancementCount, g.CurrentParticipantCount,
		g.DrawStrategy, g.DrawSeed, g.DrawHash, g.IsFinalized, g.Points.Win, g.Points.Draw, g.Points.Loss,
		pq.Array(tiebreakerStrings(g.Tiebreakers)), g.MatchFormat.BestOf,
	).Scan(&g.ID, &g.CreatedAt)
	return constraintError(err, groupConstraints)
}

func (r *postgresGroupRepository) scanGroup(row rowScanner) (*models.Group, error) {
	var g models.Group
	var strategy sql.NullString
	var tiebreakers []string
	err := row.Scan(&g.ID, &g.StageID, &g.TournamentID, &g.Name, &g.DisplayOrder, &g.Capacity, &g.AdvancementCount,
		&g.CurrentParticipantCount, &strategy, &g.DrawSeed, &g.DrawHash, &g.IsFinalized,
		&g.Points.Win, &g.Points.Draw, &g.Points.Loss, pq.Array(&tiebreakers), &g.MatchFormat.BestOf, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if strategy.Valid {
		ds := models.DrawStrategy(strategy.String)
		g.DrawStrategy = &ds
	}
	g.Tiebreakers = make([]models.Tiebreaker, len(tiebreakers))
	for i, tb := range tiebreakers {
		g.Tiebreakers[i] = models.Tiebreaker(tb)
	}
	return &g, nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM stage_groups WHERE id = $1`
	return r.scanGroup(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresGroupRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM stage_groups WHERE stage_id = $1 ORDER BY display_order ASC`
	rows, err := r.exec.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g, err := r.scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *postgresGroupRepository) Update(ctx context.Context, g *models.Group) error {
	query := `
		UPDATE stage_groups SET
			name = $1, capacity = $2, advancement_count = $3, current_participant_count = $4,
			draw_strategy = $5, draw_seed = $6, draw_hash = $7, is_finalized = $8,
			points_win = $9, points_draw = $10, points_loss = $11, tiebreakers = $12, best_of = $13
		WHERE id = $14`
	result, err := r.exec.ExecContext(ctx, query,
		g.Name, g.Capacity, g.AdvancementCount, g.CurrentParticipantCount,
		g.DrawStrategy, g.DrawSeed, g.DrawHash, g.IsFinalized,
		g.Points.Win, g.Points.Draw, g.Points.Loss, pq.Array(tiebreakerStrings(g.Tiebreakers)), g.MatchFormat.BestOf,
		g.ID,
	)
	if err != nil {
		return constraintError(fmt.Errorf("Update: group %d: %w", g.ID, err), groupConstraints)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) DeleteByStage(ctx context.Context, stageID int) error {
	_, err := r.exec.ExecContext(ctx, `DELETE FROM stage_groups WHERE stage_id = $1`, stageID)
	return err
}
