package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresParticipantRepository struct {
	exec SQLExecutor
}

func NewPostgresParticipantRepository(exec SQLExecutor) ParticipantRepository {
	return &postgresParticipantRepository{exec: exec}
}

var participantConstraints = map[string]error{
	"participants_tournament_id_fkey":  ErrTournamentNotFound,
	"participants_tournament_user_key": ErrParticipantInvalid,
	"participants_tournament_team_key": ErrParticipantInvalid,
	"participants_owner_check":         models.ErrStandingOwnerInvalid,
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, team_id, seed, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	if p.Status == "" {
		p.Status = models.ParticipantPending
	}
	err := r.exec.QueryRowContext(ctx, query, p.TournamentID, p.UserID, p.TeamID, p.Seed, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	return constraintError(err, participantConstraints)
}

func (r *postgresParticipantRepository) scanParticipant(row rowScanner) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.TeamID, &p.Seed, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT id, tournament_id, user_id, team_id, seed, status, created_at FROM participants WHERE id = $1`
	return r.scanParticipant(r.exec.QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) ListConfirmed(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, team_id, seed, status, created_at
		FROM participants
		WHERE tournament_id = $1 AND status = $2
		ORDER BY seed ASC NULLS LAST, id ASC`
	return r.list(ctx, query, tournamentID, models.ParticipantConfirmed)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, team_id, seed, status, created_at
		FROM participants
		WHERE tournament_id = $1
		ORDER BY id ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresParticipantRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, err := r.scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	query := `UPDATE participants SET seed = $1, status = $2 WHERE id = $3`
	res, err := r.exec.ExecContext(ctx, query, p.Seed, p.Status, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
