package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresStandingRepository struct {
	exec SQLExecutor
}

func NewPostgresStandingRepository(exec SQLExecutor) StandingRepository {
	return &postgresStandingRepository{exec: exec}
}

var standingConstraints = map[string]error{
	"standings_group_participant_key": ErrStandingConflict,
	"standings_stage_participant_key": ErrStandingConflict,
	"standings_participant_id_fkey":   ErrParticipantInvalid,
	"standings_group_id_fkey":         ErrGroupNotFound,
	"standings_owner_check":           models.ErrStandingOwnerInvalid,
}

const standingColumns = `id, group_id, stage_id, participant_id, user_id, team_id, draw_position, matches_played,
	wins, draws, losses, points, counters, rank, is_advancing, is_eliminated, updated_at`

func (r *postgresStandingRepository) CreateBatch(ctx context.Context, rows []*models.Standing) error {
	query := `
		INSERT INTO standings (group_id, stage_id, participant_id, user_id, team_id, draw_position, counters)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, updated_at`
	for _, s := range rows {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("CreateBatch: participant %d: %w", s.ParticipantID, err)
		}
		counters, err := json.Marshal(s.Counters)
		if err != nil {
			return err
		}
		err = r.exec.QueryRowContext(ctx, query,
			s.GroupID, s.StageID, s.ParticipantID, s.UserID, s.TeamID, s.DrawPosition, counters,
		).Scan(&s.ID, &s.UpdatedAt)
		if err != nil {
			return constraintError(err, standingConstraints)
		}
	}
	return nil
}

func (r *postgresStandingRepository) scanStanding(row rowScanner) (*models.Standing, error) {
	var s models.Standing
	var counters []byte
	err := row.Scan(&s.ID, &s.GroupID, &s.StageID, &s.ParticipantID, &s.UserID, &s.TeamID, &s.DrawPosition,
		&s.MatchesPlayed, &s.Wins, &s.Draws, &s.Losses, &s.Points, &counters, &s.Rank,
		&s.IsAdvancing, &s.IsEliminated, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	if len(counters) > 0 {
		if err := json.Unmarshal(counters, &s.Counters); err != nil {
			return nil, fmt.Errorf("standing %d: decoding counters: %w", s.ID, err)
		}
	}
	return &s, nil
}

func (r *postgresStandingRepository) list(ctx context.Context, query string, arg int) ([]*models.Standing, error) {
	rows, err := r.exec.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, err := r.scanStanding(rows)
		if err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Standing, error) {
	return r.list(ctx, `SELECT `+standingColumns+` FROM standings WHERE group_id = $1 ORDER BY draw_position ASC, participant_id ASC`, groupID)
}

func (r *postgresStandingRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Standing, error) {
	return r.list(ctx, `SELECT `+standingColumns+` FROM standings WHERE stage_id = $1 ORDER BY group_id ASC, rank ASC NULLS LAST, draw_position ASC`, stageID)
}

func (r *postgresStandingRepository) SaveResults(ctx context.Context, rows []*models.Standing) error {
	query := `
		UPDATE standings SET
			matches_played = $1, wins = $2, draws = $3, losses = $4, points = $5, counters = $6,
			rank = $7, is_advancing = $8, is_eliminated = $9, updated_at = $10
		WHERE id = $11`
	now := time.Now().UTC()
	for _, s := range rows {
		counters, err := json.Marshal(s.Counters)
		if err != nil {
			return err
		}
		result, err := r.exec.ExecContext(ctx, query,
			s.MatchesPlayed, s.Wins, s.Draws, s.Losses, s.Points, counters,
			s.Rank, s.IsAdvancing, s.IsEliminated, now, s.ID,
		)
		if err != nil {
			return fmt.Errorf("SaveResults: standing %d: %w", s.ID, err)
		}
		if err := checkAffectedRows(result, ErrStandingNotFound); err != nil {
			return err
		}
		s.UpdatedAt = now
	}
	return nil
}

func (r *postgresStandingRepository) DeleteByStage(ctx context.Context, stageID int) error {
	_, err := r.exec.ExecContext(ctx, `DELETE FROM standings WHERE stage_id = $1`, stageID)
	return err
}

func (r *postgresStandingRepository) LockGroup(ctx context.Context, groupID int) error {
	// two-key form: class 1 is reserved for standings groups
	_, err := r.exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(1, $1)`, groupID)
	if err != nil {
		return fmt.Errorf("LockGroup: group %d: %w", groupID, err)
	}
	return nil
}
