package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(exec SQLExecutor) MatchRepository {
	return &postgresMatchRepository{exec: exec}
}

var matchConstraints = map[string]error{
	"matches_stage_uid_key":              ErrBracketUIDConflict,
	"matches_tournament_id_fkey":         ErrTournamentNotFound,
	"matches_stage_id_fkey":              ErrStageNotFound,
	"matches_group_id_fkey":              ErrGroupNotFound,
	"matches_p1_participant_id_fkey":     ErrParticipantInvalid,
	"matches_p2_participant_id_fkey":     ErrParticipantInvalid,
	"matches_winner_participant_id_fkey": ErrParticipantInvalid,
	"matches_loser_participant_id_fkey":  ErrParticipantInvalid,
	"matches_next_match_id_fkey":         ErrMatchNotFound,
}

const matchColumns = `id, tournament_id, stage_id, group_id, round, order_in_round, bracket_match_uid, next_match_id,
	winner_to_slot, p1_participant_id, p2_participant_id, state, p1_score, p2_score, p1_stats, p2_stats,
	reported_by, winner_participant_id, loser_participant_id, is_draw, last_operation, last_idempotency_key,
	version, scheduled_at, started_at, completed_at, created_at, updated_at`

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, stage_id, group_id, round, order_in_round, bracket_match_uid, next_match_id, winner_to_slot,
			 p1_participant_id, p2_participant_id, state, p1_score, p2_score, p1_stats, p2_stats,
			 winner_participant_id, loser_participant_id, is_draw, scheduled_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, version, created_at, updated_at`
	if m.State == "" {
		m.State = models.MatchScheduled
	}
	p1Stats, err := nullableJSON(m.P1Stats)
	if err != nil {
		return err
	}
	p2Stats, err := nullableJSON(m.P2Stats)
	if err != nil {
		return err
	}
	err = r.exec.QueryRowContext(ctx, query,
		m.TournamentID, m.StageID, m.GroupID, m.Round, m.OrderInRound, m.BracketMatchUID, m.NextMatchID, m.WinnerToSlot,
		m.P1ParticipantID, m.P2ParticipantID, m.State, m.P1Score, m.P2Score, p1Stats, p2Stats,
		m.WinnerID, m.LoserID, m.IsDraw, m.ScheduledAt, m.CompletedAt,
	).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)
	return constraintError(err, matchConstraints)
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var p1Stats, p2Stats []byte
	err := row.Scan(&m.ID, &m.TournamentID, &m.StageID, &m.GroupID, &m.Round, &m.OrderInRound, &m.BracketMatchUID,
		&m.NextMatchID, &m.WinnerToSlot, &m.P1ParticipantID, &m.P2ParticipantID, &m.State, &m.P1Score, &m.P2Score,
		&p1Stats, &p2Stats, &m.ReportedBy, &m.WinnerID, &m.LoserID, &m.IsDraw, &m.LastOperation,
		&m.LastIdempotencyKey, &m.Version, &m.ScheduledAt, &m.StartedAt, &m.CompletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if m.P1Stats, err = scanNullableJSON[models.SideStats](p1Stats); err != nil {
		return nil, fmt.Errorf("match %d: decoding p1 stats: %w", m.ID, err)
	}
	if m.P2Stats, err = scanNullableJSON[models.SideStats](p2Stats); err != nil {
		return nil, fmt.Errorf("match %d: decoding p2 stats: %w", m.ID, err)
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, arg int) ([]*models.Match, error) {
	rows, err := r.exec.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches WHERE group_id = $1 ORDER BY round ASC, order_in_round ASC, id ASC`, groupID)
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches WHERE stage_id = $1 ORDER BY round ASC, order_in_round ASC, id ASC`, stageID)
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			next_match_id = $1, winner_to_slot = $2, p1_participant_id = $3, p2_participant_id = $4, state = $5,
			p1_score = $6, p2_score = $7, p1_stats = $8, p2_stats = $9, reported_by = $10,
			winner_participant_id = $11, loser_participant_id = $12, is_draw = $13,
			last_operation = $14, last_idempotency_key = $15, scheduled_at = $16, started_at = $17, completed_at = $18,
			version = version + 1, updated_at = NOW()
		WHERE id = $19
		RETURNING version, updated_at`
	p1Stats, err := nullableJSON(m.P1Stats)
	if err != nil {
		return err
	}
	p2Stats, err := nullableJSON(m.P2Stats)
	if err != nil {
		return err
	}
	err = r.exec.QueryRowContext(ctx, query,
		m.NextMatchID, m.WinnerToSlot, m.P1ParticipantID, m.P2ParticipantID, m.State,
		m.P1Score, m.P2Score, p1Stats, p2Stats, m.ReportedBy,
		m.WinnerID, m.LoserID, m.IsDraw,
		m.LastOperation, m.LastIdempotencyKey, m.ScheduledAt, m.StartedAt, m.CompletedAt,
		m.ID,
	).Scan(&m.Version, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	return constraintError(err, matchConstraints)
}

func (r *postgresMatchRepository) DeleteByGroup(ctx context.Context, groupID int) error {
	_, err := r.exec.ExecContext(ctx, `DELETE FROM matches WHERE group_id = $1`, groupID)
	return err
}
