package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-stages/models"
)

type postgresDisputeRepository struct {
	exec SQLExecutor
}

func NewPostgresDisputeRepository(exec SQLExecutor) DisputeRepository {
	return &postgresDisputeRepository{exec: exec}
}

var disputeConstraints = map[string]error{
	"disputes_one_open_per_match":               ErrOpenDisputeExists,
	"disputes_match_id_fkey":                    ErrMatchNotFound,
	"disputes_disqualified_participant_id_fkey": ErrParticipantInvalid,
}

const disputeColumns = `id, reference, match_id, raised_by, reason, status, previous_state, outcome,
	override_p1_score, override_p2_score, disqualified_participant_id, resolved_by, resolved_at, created_at`

func (r *postgresDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (reference, match_id, raised_by, reason, status, previous_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	if d.Status == "" {
		d.Status = models.DisputeOpen
	}
	err := r.exec.QueryRowContext(ctx, query, d.Reference, d.MatchID, d.RaisedBy, d.Reason, d.Status, d.PreviousState).
		Scan(&d.ID, &d.CreatedAt)
	return constraintError(err, disputeConstraints)
}

func (r *postgresDisputeRepository) scanDispute(row rowScanner) (*models.Dispute, error) {
	var d models.Dispute
	var outcome sql.NullString
	err := row.Scan(&d.ID, &d.Reference, &d.MatchID, &d.RaisedBy, &d.Reason, &d.Status, &d.PreviousState, &outcome,
		&d.OverrideP1Score, &d.OverrideP2Score, &d.DisqualifiedParticipantID, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	if outcome.Valid {
		o := models.DisputeOutcome(outcome.String)
		d.Outcome = &o
	}
	return &d, nil
}

func (r *postgresDisputeRepository) GetOpenByMatch(ctx context.Context, matchID int) (*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE match_id = $1 AND status = $2`
	return r.scanDispute(r.exec.QueryRowContext(ctx, query, matchID, models.DisputeOpen))
}

func (r *postgresDisputeRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE match_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.exec.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		d, err := r.scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

func (r *postgresDisputeRepository) Update(ctx context.Context, d *models.Dispute) error {
	query := `
		UPDATE disputes SET
			status = $1, outcome = $2, override_p1_score = $3, override_p2_score = $4,
			disqualified_participant_id = $5, resolved_by = $6, resolved_at = $7
		WHERE id = $8`
	result, err := r.exec.ExecContext(ctx, query,
		d.Status, d.Outcome, d.OverrideP1Score, d.OverrideP2Score,
		d.DisqualifiedParticipantID, d.ResolvedBy, d.ResolvedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: dispute %d: %w", d.ID, constraintError(err, disputeConstraints))
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}
